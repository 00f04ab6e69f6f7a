package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/austinbrady/Assist-sub001/internal/activity"
	"github.com/austinbrady/Assist-sub001/internal/persona"
	"github.com/austinbrady/Assist-sub001/internal/values"
)

// FileStore keeps all user state as flat JSON files:
//
//	<dataDir>/users.json                                   (atomic rename)
//	<dataDir>/chat_logs/<user>/conversation_<id>.json      (direct overwrite)
//	<dataDir>/state/<user>/activity.json                   (direct overwrite)
//	<dataDir>/state/<user>/values.json                     (direct overwrite)
//	<dataDir>/state/<user>/character.json                  (direct overwrite)
//
// Only the users index gets the temp-file-then-rename treatment; the
// per-feature files are whole-file overwrites, matching the crash
// semantics of the original layout.
type FileStore struct {
	dataDir string
	mu      sync.Mutex // serializes users.json rewrites
	logger  *zap.Logger
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dataDir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dataDir: dataDir, logger: logger}, nil
}

func (s *FileStore) userDir(username string) string {
	return filepath.Join(s.dataDir, "state", username)
}

func (s *FileStore) chatDir(username string) string {
	return filepath.Join(s.dataDir, "chat_logs", username)
}

func (s *FileStore) convPath(username, id string) string {
	return filepath.Join(s.chatDir(username), "conversation_"+id+".json")
}

// SaveConversation writes the whole record and registers the user.
func (s *FileStore) SaveConversation(ctx context.Context, rec *activity.ConversationRecord) error {
	if rec.ConversationID == "" || rec.Username == "" {
		return fmt.Errorf("conversation needs id and username")
	}
	if err := s.writeJSON(s.convPath(rec.Username, rec.ConversationID), rec); err != nil {
		return fmt.Errorf("save conversation %s: %w", rec.ConversationID, err)
	}
	return s.registerUser(rec.Username)
}

// GetConversation loads one record; ErrNotFound if absent.
func (s *FileStore) GetConversation(ctx context.Context, username, conversationID string) (*activity.ConversationRecord, error) {
	var rec activity.ConversationRecord
	if err := s.readJSON(s.convPath(username, conversationID), &rec); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load conversation %s: %w", conversationID, err)
	}
	return &rec, nil
}

// RecentConversations lists records most recently modified first,
// skipping corrupt files.
func (s *FileStore) RecentConversations(ctx context.Context, username string, limit int) ([]*activity.ConversationRecord, error) {
	entries, err := os.ReadDir(s.chatDir(username))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // first use: empty state
		}
		return nil, fmt.Errorf("read chat dir for %s: %w", username, err)
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}
	var files []fileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{
			path:    filepath.Join(s.chatDir(username), e.Name()),
			modTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	var recs []*activity.ConversationRecord
	for _, f := range files {
		if limit > 0 && len(recs) >= limit {
			break
		}
		var rec activity.ConversationRecord
		if err := s.readJSON(f.path, &rec); err != nil {
			// Skip-and-continue: one bad file never fails the scan.
			s.logger.Warn("skipping unreadable conversation file",
				zap.String("path", f.path), zap.Error(err))
			continue
		}
		recs = append(recs, &rec)
	}
	return recs, nil
}

// AllConversations lists every readable record for the user.
func (s *FileStore) AllConversations(ctx context.Context, username string) ([]*activity.ConversationRecord, error) {
	return s.RecentConversations(ctx, username, 0)
}

// AppendActivity appends to the bounded activity log.
func (s *FileStore) AppendActivity(ctx context.Context, username string, entry activity.Entry) error {
	log, err := s.ActivityLog(ctx, username)
	if err != nil {
		return err
	}
	log.Append(entry)
	path := filepath.Join(s.userDir(username), "activity.json")
	if err := s.writeJSON(path, log); err != nil {
		return fmt.Errorf("save activity log for %s: %w", username, err)
	}
	return nil
}

// ActivityLog loads the log; a missing or corrupt file is empty state.
func (s *FileStore) ActivityLog(ctx context.Context, username string) (*activity.Log, error) {
	log := activity.NewLog()
	path := filepath.Join(s.userDir(username), "activity.json")
	if err := s.readJSON(path, log); err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("unreadable activity log, starting fresh",
				zap.String("user", username), zap.Error(err))
		}
		return activity.NewLog(), nil
	}
	log.Cap = activity.DefaultLogCap
	return log, nil
}

// usersIndex is the master user table.
type usersIndex struct {
	Users map[string]time.Time `json:"users"` // username -> registered_at
}

// ListUsers returns registered usernames sorted for stable output.
func (s *FileStore) ListUsers(ctx context.Context) ([]string, error) {
	idx, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(idx.Users))
	for name := range idx.Users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// registerUser adds the user to users.json via write-to-temp-then-rename.
func (s *FileStore) registerUser(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.loadUsers()
	if err != nil {
		return err
	}
	if _, ok := idx.Users[username]; ok {
		return nil
	}
	idx.Users[username] = time.Now()

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal users index: %w", err)
	}
	path := filepath.Join(s.dataDir, "users.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write users index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace users index: %w", err)
	}
	return nil
}

func (s *FileStore) loadUsers() (*usersIndex, error) {
	idx := &usersIndex{Users: make(map[string]time.Time)}
	path := filepath.Join(s.dataDir, "users.json")
	if err := s.readJSON(path, idx); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load users index: %w", err)
	}
	if idx.Users == nil {
		idx.Users = make(map[string]time.Time)
	}
	return idx, nil
}

// LoadValueSystem returns nil, nil when no file exists. A corrupt file
// is treated as empty state, per the degrade-to-default policy.
func (s *FileStore) LoadValueSystem(ctx context.Context, username string) (*values.System, error) {
	var sys values.System
	path := filepath.Join(s.userDir(username), "values.json")
	if err := s.readJSON(path, &sys); err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("unreadable value system, treating as new",
				zap.String("user", username), zap.Error(err))
		}
		return nil, nil
	}
	return &sys, nil
}

func (s *FileStore) SaveValueSystem(ctx context.Context, username string, sys *values.System) error {
	path := filepath.Join(s.userDir(username), "values.json")
	if err := s.writeJSON(path, sys); err != nil {
		return fmt.Errorf("save value system for %s: %w", username, err)
	}
	return nil
}

// LoadCharacter returns nil, nil when no file exists.
func (s *FileStore) LoadCharacter(ctx context.Context, username string) (*persona.Character, error) {
	var ch persona.Character
	path := filepath.Join(s.userDir(username), "character.json")
	if err := s.readJSON(path, &ch); err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("unreadable character file, treating as new",
				zap.String("user", username), zap.Error(err))
		}
		return nil, nil
	}
	return &ch, nil
}

func (s *FileStore) SaveCharacter(ctx context.Context, ch *persona.Character) error {
	path := filepath.Join(s.userDir(ch.Username), "character.json")
	if err := s.writeJSON(path, ch); err != nil {
		return fmt.Errorf("save character for %s: %w", ch.Username, err)
	}
	return nil
}

func (s *FileStore) writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *FileStore) readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
