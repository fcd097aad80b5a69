// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package forum

import (
	"fmt"

	"github.com/tomtom215/indieforge/internal/models"
)

// ChannelAll shows posts from every category.
const ChannelAll = "all"

var channels = []models.Channel{
	{ID: "unity", Name: "Unity", Description: "Unity engine development", Categories: []models.Category{models.CategoryUnity}},
	{ID: "unreal", Name: "Unreal", Description: "Unreal Engine development", Categories: []models.Category{models.CategoryUnreal}},
	{ID: "godot", Name: "Godot", Description: "Godot engine development", Categories: []models.Category{models.CategoryGodot}},
	{ID: "general", Name: "General", Description: "Design, art, audio and everything else", Categories: []models.Category{models.CategoryGeneral}},
	{ID: ChannelAll, Name: "All", Description: "Every post on the forum", Categories: models.AllCategories},
}

// Channels returns the fixed forum channels in display order.
func Channels() []models.Channel {
	out := make([]models.Channel, len(channels))
	for i, ch := range channels {
		ch.Categories = append([]models.Category(nil), ch.Categories...)
		out[i] = ch
	}
	return out
}

// ChannelCategories returns the categories shown in channel id.
func ChannelCategories(id string) ([]models.Category, error) {
	for _, ch := range channels {
		if ch.ID == id {
			return append([]models.Category(nil), ch.Categories...), nil
		}
	}
	return nil, fmt.Errorf("%w: unknown channel %q", ErrInvalidInput, id)
}
