// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// MemberAction is the server-side edit applied to a room member.
type MemberAction string

const (
	// SetVoter promotes the member to voting participation.
	SetVoter MemberAction = "SET_VOTER"
	// SetObserver demotes the member to watching only.
	SetObserver MemberAction = "SET_OBSERVER"
	// Kick removes the member from the room.
	Kick MemberAction = "KICK"
)

// RoomPatch is a partial room edit. Nil fields are omitted from the
// payload and left unchanged by the server. Callers build patches by
// diffing the desired state against the last-seen snapshot; see
// roomsync.Synchronizer.EditRoom.
type RoomPatch struct {
	Topic       *string   `json:"topic,omitempty"`
	CardSetName *string   `json:"cardSetName,omitempty"`
	Extensions  *[]string `json:"extensions,omitempty"`
}

// IsEmpty reports whether the patch changes nothing. Empty patches
// are not worth a round trip.
func (patch RoomPatch) IsEmpty() bool {
	return patch.Topic == nil && patch.CardSetName == nil && patch.Extensions == nil
}

// CreateRoom creates a new room with the given card set.
func (client *Client) CreateRoom(ctx context.Context, name, cardSetName string) error {
	payload := struct {
		CardSetName string `json:"cardSetName"`
	}{CardSetName: cardSetName}
	if err := client.send(ctx, http.MethodPost, "/api/rooms/"+url.PathEscape(name), payload); err != nil {
		return fmt.Errorf("create room %q: %w", name, err)
	}
	return nil
}

// DeleteRoom deletes a room.
func (client *Client) DeleteRoom(ctx context.Context, name string) error {
	if err := client.send(ctx, http.MethodDelete, "/api/rooms/"+url.PathEscape(name), nil); err != nil {
		return fmt.Errorf("delete room %q: %w", name, err)
	}
	return nil
}

// EditRoom applies a partial edit to a room's settings.
func (client *Client) EditRoom(ctx context.Context, name string, patch RoomPatch) error {
	if err := client.send(ctx, http.MethodPatch, "/api/rooms/"+url.PathEscape(name), patch); err != nil {
		return fmt.Errorf("edit room %q: %w", name, err)
	}
	return nil
}

// JoinRoom adds the local user to a room's roster.
func (client *Client) JoinRoom(ctx context.Context, name string) error {
	if err := client.send(ctx, http.MethodPost, "/api/rooms/"+url.PathEscape(name)+"/members", nil); err != nil {
		return fmt.Errorf("join room %q: %w", name, err)
	}
	return nil
}

// LeaveRoom removes the local user from a room's roster.
func (client *Client) LeaveRoom(ctx context.Context, name string) error {
	if err := client.send(ctx, http.MethodDelete, "/api/rooms/"+url.PathEscape(name)+"/members", nil); err != nil {
		return fmt.Errorf("leave room %q: %w", name, err)
	}
	return nil
}

// EditMember changes a member's role or kicks them from the room.
func (client *Client) EditMember(ctx context.Context, room, username string, action MemberAction) error {
	path := "/api/rooms/" + url.PathEscape(room) + "/members/" + url.PathEscape(username) +
		"?action=" + url.QueryEscape(string(action))
	if err := client.send(ctx, http.MethodPatch, path, nil); err != nil {
		return fmt.Errorf("edit member %q in %q: %w", username, room, err)
	}
	return nil
}

// CastVote casts (or replaces) the local user's vote.
func (client *Client) CastVote(ctx context.Context, room, cardName string) error {
	path := "/api/rooms/" + url.PathEscape(room) + "/votes?card-name=" + url.QueryEscape(cardName)
	if err := client.send(ctx, http.MethodPost, path, nil); err != nil {
		return fmt.Errorf("cast vote in %q: %w", room, err)
	}
	return nil
}

// ClearVotes discards all cast votes and reopens voting.
func (client *Client) ClearVotes(ctx context.Context, room string) error {
	if err := client.send(ctx, http.MethodDelete, "/api/rooms/"+url.PathEscape(room)+"/votes", nil); err != nil {
		return fmt.Errorf("clear votes in %q: %w", room, err)
	}
	return nil
}

// PatchRoomExtensionConfig updates the per-room configuration blob for
// an extension. The content shape is extension-defined.
func (client *Client) PatchRoomExtensionConfig(ctx context.Context, room, key string, content any) error {
	path := "/api/rooms/" + url.PathEscape(room) + "/extensions/" + url.PathEscape(key)
	if err := client.send(ctx, http.MethodPatch, path, content); err != nil {
		return fmt.Errorf("extension %q config for %q: %w", key, room, err)
	}
	return nil
}
