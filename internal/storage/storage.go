package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/marketpulse/internal/analytics"
	"github.com/ignite/marketpulse/internal/config"
)

// ErrNotFound is returned when a campaign has no stored snapshot.
var ErrNotFound = errors.New("snapshot not found")

// sortKeyLayout is fixed width so lexical order is chronological.
const sortKeyLayout = "2006-01-02T15:04:05.000000000Z"

// Snapshot is one computed campaign report, kept as history for the next
// period's comparison.
type Snapshot struct {
	ID         string           `json:"id"`
	CampaignID string           `json:"campaign_id"`
	CreatedAt  time.Time        `json:"created_at"`
	Sources    []string         `json:"sources,omitempty"`
	Report     analytics.Report `json:"report"`
}

// SortKey orders snapshots of one campaign.
func (s *Snapshot) SortKey() string {
	return s.CreatedAt.UTC().Format(sortKeyLayout)
}

// SnapshotStore persists report snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	LatestSnapshot(ctx context.Context, campaignID string) (*Snapshot, error)
	ListSnapshots(ctx context.Context, campaignID string, limit int) ([]Snapshot, error)
}

// Storage stores snapshots on local disk or in DynamoDB with an S3 archive,
// depending on config.
type Storage struct {
	config config.StorageConfig
	mu     sync.RWMutex
	aws    *AWSStorage
	now    func() time.Time
}

// New creates a Storage for cfg.Type "local" or "aws".
func New(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	s := &Storage{config: cfg, now: time.Now}

	switch cfg.Type {
	case "aws":
		awsStorage, err := NewAWSStorage(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("initializing AWS storage: %w", err)
		}
		s.aws = awsStorage
	case "local", "":
		if cfg.LocalPath == "" {
			return nil, fmt.Errorf("local storage requires a path")
		}
		if err := os.MkdirAll(cfg.LocalPath, 0o755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	return s, nil
}

// NewWithAWS wraps an already constructed AWS backend.
func NewWithAWS(a *AWSStorage) *Storage {
	return &Storage{config: config.StorageConfig{Type: "aws"}, aws: a, now: time.Now}
}

// Backend names the active backend for health output.
func (s *Storage) Backend() string {
	if s.aws != nil {
		return "aws"
	}
	return "local"
}

// SaveSnapshot assigns an id and timestamp when missing and stores snap.
func (s *Storage) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	if snap.CampaignID == "" {
		return fmt.Errorf("snapshot has no campaign id")
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = s.now().UTC()
	}

	if s.aws != nil {
		return s.aws.SaveSnapshot(ctx, snap)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveToFile(campaignDir(snap.CampaignID), snap.SortKey(), snap)
}

// LatestSnapshot returns the most recent snapshot of a campaign.
func (s *Storage) LatestSnapshot(ctx context.Context, campaignID string) (*Snapshot, error) {
	snaps, err := s.ListSnapshots(ctx, campaignID, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, ErrNotFound
	}
	return &snaps[0], nil
}

// ListSnapshots returns up to limit snapshots, newest first. limit <= 0
// returns all of them.
func (s *Storage) ListSnapshots(ctx context.Context, campaignID string, limit int) ([]Snapshot, error) {
	if s.aws != nil {
		return s.aws.ListSnapshots(ctx, campaignID, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.config.LocalPath, campaignDir(campaignID))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	out := make([]Snapshot, 0, len(names))
	for _, name := range names {
		var snap Snapshot
		if err := s.loadFromFile(campaignDir(campaignID), name, &snap); err != nil {
			return nil, fmt.Errorf("reading snapshot %s: %w", name, err)
		}
		out = append(out, snap)
	}
	return out, nil
}

// Ping checks that the backend is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	if s.aws != nil {
		return s.aws.Ping(ctx)
	}
	info, err := os.Stat(s.config.LocalPath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.config.LocalPath)
	}
	return nil
}

func campaignDir(campaignID string) string {
	return filepath.Join("reports", filepath.Base(campaignID))
}

// saveToFile writes data as indented JSON under LocalPath/category.
func (s *Storage) saveToFile(category, key string, data interface{}) error {
	dir := filepath.Join(s.config.LocalPath, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, filepath.Base(key)+".json")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (s *Storage) loadFromFile(category, key string, data interface{}) error {
	path := filepath.Join(s.config.LocalPath, category, filepath.Base(key)+".json")
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(data)
}
