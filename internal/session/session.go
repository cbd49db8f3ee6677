package session

import (
	"time"

	"github.com/google/uuid"
)

// Context identifies what the developer is currently editing. A nil
// *Context means no editor is focused (terminal, webview, nothing open).
type Context struct {
	WorkspaceName string `json:"workspaceName"`
	WorkspacePath string `json:"workspacePath"`
	LanguageID    string `json:"languageId"`
	FileName      string `json:"fileName"`
}

// SameAttribution reports whether two contexts route time to the same
// language, project and file buckets.
func (c Context) SameAttribution(o Context) bool {
	return c.LanguageID == o.LanguageID &&
		c.WorkspacePath == o.WorkspacePath &&
		c.FileName == o.FileName
}

// Session is a continuous tracked interval. It survives file switches but
// not idle timeouts or workspace changes.
type Session struct {
	ID               string     `json:"id"`
	StartTime        time.Time  `json:"startTime"`
	EndTime          *time.Time `json:"endTime"`
	WorkspaceName    string     `json:"workspaceName"`
	WorkspacePath    string     `json:"workspacePath"`
	LanguageID       string     `json:"languageId"`
	FileName         string     `json:"fileName"`
	IsActive         bool       `json:"isActive"`
	CharactersEdited int64      `json:"charactersEdited"`
}

// New starts a session attributed to ctx.
func New(ctx Context, now time.Time) *Session {
	s := &Session{
		ID:        uuid.New().String(),
		StartTime: now,
		IsActive:  true,
	}
	s.Relabel(ctx)
	return s
}

// Context returns the session's current attribution.
func (s *Session) Context() Context {
	return Context{
		WorkspaceName: s.WorkspaceName,
		WorkspacePath: s.WorkspacePath,
		LanguageID:    s.LanguageID,
		FileName:      s.FileName,
	}
}

// Relabel changes the attribution in place. ID and StartTime are untouched.
func (s *Session) Relabel(ctx Context) {
	s.WorkspaceName = ctx.WorkspaceName
	s.WorkspacePath = ctx.WorkspacePath
	s.LanguageID = ctx.LanguageID
	s.FileName = ctx.FileName
}

// End stamps the end time and returns the session's total duration.
func (s *Session) End(now time.Time) time.Duration {
	s.EndTime = &now
	s.IsActive = false
	return s.Duration(now)
}

// Duration returns the elapsed time from start to end, or to now while the
// session is live.
func (s *Session) Duration(now time.Time) time.Duration {
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	if end.Before(s.StartTime) {
		return 0
	}
	return end.Sub(s.StartTime)
}
