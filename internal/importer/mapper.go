// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package importer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/indieforge/internal/models"
)

// errSkip marks a document that cannot be imported.
var errSkip = errors.New("skip")

func skipf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{errSkip}, args...)...)
}

// Mapper converts legacy documents to models. Missing fields get
// defaults; documents missing a required reference are skipped.
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a mapper that stamps missing times with now.
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// ToUser maps a users document. The legacy password hash is kept only
// when it is a bcrypt hash.
func (m *Mapper) ToUser(doc Document) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(stringField(doc.Data, "email")))
	if email == "" {
		return nil, skipf("user %s has no email", doc.ID)
	}
	nickname := strings.TrimSpace(stringField(doc.Data, "nickname", "displayName", "name"))
	if nickname == "" {
		nickname = "dev-" + shortID(doc.ID)
	}
	role := stringField(doc.Data, "role")
	if !models.ValidRole(role) {
		role = models.RoleUser
	}
	if boolField(doc.Data, "isAdmin") {
		role = models.RoleAdmin
	}
	hash := stringField(doc.Data, "passwordHash")
	if !strings.HasPrefix(hash, "$2") {
		hash = ""
	}

	created := m.timeField(doc.Data, "createdAt")
	return &models.User{
		ID:           doc.ID,
		Email:        email,
		Nickname:     nickname,
		PasswordHash: hash,
		Role:         role,
		Bio:          stringField(doc.Data, "bio"),
		AvatarID:     stringField(doc.Data, "avatarId"),
		Banned:       boolField(doc.Data, "banned"),
		CreatedAt:    created,
		UpdatedAt:    m.timeFieldOr(doc.Data, "updatedAt", created),
	}, nil
}

// ToPost maps a posts document and returns the ids of users who upvoted it.
func (m *Mapper) ToPost(doc Document) (*models.Post, []string, error) {
	author := stringField(doc.Data, "authorId", "userId", "uid")
	if author == "" {
		return nil, nil, skipf("post %s has no author", doc.ID)
	}
	category, ok := models.ParseCategory(stringField(doc.Data, "category"))
	if !ok {
		category = models.CategoryGeneral
	}
	title := strings.TrimSpace(stringField(doc.Data, "title"))
	if title == "" {
		title = "(untitled)"
	}

	upvoters := stringSlice(doc.Data["upvotedBy"])
	upvotes := intField(doc.Data, "upvotes", "likes")
	if n := int64(len(upvoters)); n > upvotes {
		upvotes = n
	}

	created := m.timeField(doc.Data, "createdAt")
	return &models.Post{
		ID:           doc.ID,
		AuthorID:     author,
		Category:     category,
		Title:        title,
		Content:      stringField(doc.Data, "content", "body"),
		Tags:         normalizeTags(stringSlice(doc.Data["tags"])),
		ImageIDs:     stringSlice(doc.Data["imageIds"]),
		Views:        intField(doc.Data, "views", "viewCount"),
		Upvotes:      upvotes,
		CommentCount: intField(doc.Data, "commentCount"),
		Pinned:       boolField(doc.Data, "pinned"),
		Deleted:      boolField(doc.Data, "deleted"),
		CreatedAt:    created,
		UpdatedAt:    m.timeFieldOr(doc.Data, "updatedAt", created),
	}, upvoters, nil
}

// ToComment maps a comments document.
func (m *Mapper) ToComment(doc Document) (*models.Comment, error) {
	postID := stringField(doc.Data, "postId")
	author := stringField(doc.Data, "authorId", "userId", "uid")
	if postID == "" || author == "" {
		return nil, skipf("comment %s has no post or author", doc.ID)
	}
	depth := int(intField(doc.Data, "depth"))
	if depth < 0 {
		depth = 0
	}
	parent := stringField(doc.Data, "parentId")
	if parent == "" {
		depth = 0
	}
	content := stringField(doc.Data, "content", "body")
	deleted := boolField(doc.Data, "deleted")
	if deleted {
		content = models.DeletedCommentText
	}

	created := m.timeField(doc.Data, "createdAt")
	return &models.Comment{
		ID:        doc.ID,
		PostID:    postID,
		ParentID:  parent,
		AuthorID:  author,
		Content:   content,
		Depth:     depth,
		Deleted:   deleted,
		CreatedAt: created,
		UpdatedAt: m.timeFieldOr(doc.Data, "updatedAt", created),
	}, nil
}

// ToWhisper maps a whispers document.
func (m *Mapper) ToWhisper(doc Document) (*models.Whisper, error) {
	sender := stringField(doc.Data, "senderId", "fromId")
	recipient := stringField(doc.Data, "recipientId", "toId")
	if sender == "" || recipient == "" {
		return nil, skipf("whisper %s has no sender or recipient", doc.ID)
	}
	w := &models.Whisper{
		ID:                 doc.ID,
		SenderID:           sender,
		RecipientID:        recipient,
		Content:            stringField(doc.Data, "content", "message"),
		DeletedBySender:    boolField(doc.Data, "deletedBySender"),
		DeletedByRecipient: boolField(doc.Data, "deletedByRecipient"),
		CreatedAt:          m.timeField(doc.Data, "createdAt"),
	}
	if t, ok := timeValue(doc.Data["readAt"]); ok {
		w.ReadAt = &t
	} else if boolField(doc.Data, "read") {
		t := w.CreatedAt
		w.ReadAt = &t
	}
	return w, nil
}

// ToInquiry maps an inquiries document.
func (m *Mapper) ToInquiry(doc Document) (*models.Inquiry, error) {
	subject := strings.TrimSpace(stringField(doc.Data, "subject", "title"))
	message := stringField(doc.Data, "message", "content")
	if subject == "" && message == "" {
		return nil, skipf("inquiry %s is empty", doc.ID)
	}
	if subject == "" {
		subject = "(no subject)"
	}
	q := &models.Inquiry{
		ID:         doc.ID,
		UserID:     stringField(doc.Data, "userId", "uid"),
		Email:      strings.ToLower(strings.TrimSpace(stringField(doc.Data, "email"))),
		Subject:    subject,
		Message:    message,
		Status:     stringField(doc.Data, "status"),
		Answer:     stringField(doc.Data, "answer", "reply"),
		AnsweredBy: stringField(doc.Data, "answeredBy"),
		CreatedAt:  m.timeField(doc.Data, "createdAt"),
	}
	if t, ok := timeValue(doc.Data["answeredAt"]); ok {
		q.AnsweredAt = &t
	}
	if !models.ValidInquiryStatus(q.Status) {
		q.Status = models.InquiryOpen
		if q.Answer != "" {
			q.Status = models.InquiryAnswered
		}
	}
	return q, nil
}

func (m *Mapper) timeField(data map[string]interface{}, key string) time.Time {
	return m.timeFieldOr(data, key, m.now().UTC())
}

func (m *Mapper) timeFieldOr(data map[string]interface{}, key string, def time.Time) time.Time {
	if t, ok := timeValue(data[key]); ok {
		return t
	}
	return def
}

// timeValue accepts Firestore timestamps, RFC 3339 strings and Unix
// milliseconds.
func timeValue(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed.UTC(), true
	case int64:
		return time.UnixMilli(t).UTC(), t > 0
	case float64:
		return time.UnixMilli(int64(t)).UTC(), t > 0
	}
	return time.Time{}, false
}

// stringField returns the first non-empty string among keys.
func stringField(data map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := data[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func intField(data map[string]interface{}, keys ...string) int64 {
	for _, k := range keys {
		switch n := data[k].(type) {
		case int64:
			return n
		case int:
			return int64(n)
		case float64:
			return int64(n)
		case string:
			if v, err := strconv.ParseInt(n, 10, 64); err == nil {
				return v
			}
		}
	}
	return 0
}

func boolField(data map[string]interface{}, key string) bool {
	b, _ := data[key].(bool)
	return b
}

func stringSlice(v interface{}) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok && str != "" {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// normalizeTags lowercases, dedupes and caps tags at five.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || len(t) > 32 || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == 5 {
			break
		}
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
