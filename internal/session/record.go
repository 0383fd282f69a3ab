package session

import "github.com/ciab/ciab/internal/store"

func toRecord(s *Session) store.Record {
	return store.Record{
		ID:             s.ID,
		DisplayName:    s.DisplayName,
		WorkspacePath:  s.WorkspacePath,
		BranchName:     s.BranchName,
		WorktreePath:   s.WorktreePath,
		TmuxName:       s.TmuxName,
		Mode:           s.Mode.String(),
		BossPrompt:     s.BossPrompt,
		Program:        s.Program,
		Environment:    s.Environment,
		CreatedAt:      s.CreatedAt,
		LastAccessedAt: s.LastAccessedAt,
	}
}

func fromRecord(r store.Record) *Session {
	mode := Interactive
	if r.Mode == Boss.String() {
		mode = Boss
	}
	return &Session{
		ID:             r.ID,
		DisplayName:    r.DisplayName,
		WorkspacePath:  r.WorkspacePath,
		BranchName:     r.BranchName,
		WorktreePath:   r.WorktreePath,
		TmuxName:       r.TmuxName,
		Environment:    r.Environment,
		Program:        r.Program,
		Mode:           mode,
		BossPrompt:     r.BossPrompt,
		CreatedAt:      r.CreatedAt,
		LastAccessedAt: r.LastAccessedAt,
	}
}
