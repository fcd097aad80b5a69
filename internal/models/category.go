// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package models

import "strings"

// Category is the engine a post is about.
type Category string

const (
	CategoryUnity   Category = "unity"
	CategoryUnreal  Category = "unreal"
	CategoryGodot   Category = "godot"
	CategoryGeneral Category = "general"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{CategoryUnity, CategoryUnreal, CategoryGodot, CategoryGeneral}

// Valid reports whether c is one of AllCategories.
func (c Category) Valid() bool {
	switch c {
	case CategoryUnity, CategoryUnreal, CategoryGodot, CategoryGeneral:
		return true
	}
	return false
}

// ParseCategory is case-insensitive. It returns false for unknown values.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Channel is a forum section that shows posts from one or more categories.
type Channel struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Categories  []Category `json:"categories"`
}
