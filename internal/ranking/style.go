// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package ranking

import "github.com/tomtom215/indieforge/internal/models"

// Nickname tiers.
const (
	TierAdmin   = "admin"
	TierGold    = "gold"
	TierSilver  = "silver"
	TierBronze  = "bronze"
	TierDefault = "default"
)

// NicknameStyle decides how a nickname is rendered from the user's role
// and best category rank (0 = unranked). Admin styling wins over rank.
func NicknameStyle(role string, bestRank int) models.NicknameStyle {
	switch {
	case role == models.RoleAdmin:
		return models.NicknameStyle{Tier: TierAdmin, Color: "#e53935", Badge: "ADMIN", Bold: true}
	case bestRank == 1:
		return models.NicknameStyle{Tier: TierGold, Color: "#f4b400", Badge: "#1", Bold: true}
	case bestRank >= 2 && bestRank <= 3:
		return models.NicknameStyle{Tier: TierSilver, Color: "#9e9e9e", Badge: "TOP3", Bold: true}
	case bestRank >= 4 && bestRank <= 10:
		return models.NicknameStyle{Tier: TierBronze, Color: "#a1887f", Badge: "TOP10"}
	default:
		return models.NicknameStyle{Tier: TierDefault, Color: "#212121"}
	}
}

// AuthorOf builds the embedded author block for a user.
func AuthorOf(u *models.User) *models.Author {
	if u == nil {
		return nil
	}
	return &models.Author{
		ID:       u.ID,
		Nickname: u.Nickname,
		Style:    NicknameStyle(u.Role, u.BestRank),
	}
}
