package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/heroiclabs/nakama-common/runtime"
)

// Storage collections for the soccer persistence surface: one keyed by
// user ID for MMR/profile state, one keyed by match ID for history.
const (
	collectionSoccerStats   = "soccer_stats"
	collectionMatchHistory  = "soccer_match_history"
)

// PlayerStatsRecord is the persisted MMR/profile record behind
// findStatsByUserId / updateMmr.
type PlayerStatsRecord struct {
	UserID             string      `json:"userId"`
	Username            string      `json:"username"`
	MMR                 int         `json:"mmr"`
	Wins                 int         `json:"wins"`
	Losses               int         `json:"losses"`
	WinStreak            int         `json:"winStreak"`
	TotalGoals           int         `json:"totalGoals"`
	TotalAssists         int         `json:"totalAssists"`
	TotalInterceptions   int         `json:"totalInterceptions"`
	PreferredStats       PlayerStats `json:"preferredStats"`
	LastMatchAt          time.Time   `json:"lastMatchAt"`
}

// MatchHistoryEntry is one persisted match-history row behind
// addMatchHistory.
type MatchHistoryEntry struct {
	MatchID   string         `json:"matchId"`
	PlayedAt  time.Time      `json:"playedAt"`
	Winner    Team           `json:"winner"`
	ScoreRed  int            `json:"scoreRed"`
	ScoreBlue int            `json:"scoreBlue"`
	MVPUserID string         `json:"mvpUserId"`
	Players   []MatchPlayerRow `json:"players"`
}

// MatchPlayerRow is one per-player row of a match-history entry, also the
// unit exported to CSV via gocsv for the soccer_matchreport RPC.
type MatchPlayerRow struct {
	UserID        string `json:"userId" csv:"user_id"`
	Team          string `json:"team" csv:"team"`
	Goals         int    `json:"goals" csv:"goals"`
	Assists       int    `json:"assists" csv:"assists"`
	Interceptions int    `json:"interceptions" csv:"interceptions"`
	MVPScore      int    `json:"mvpScore" csv:"mvp_score"`
	MMRDelta      int    `json:"mmrDelta" csv:"mmr_delta"`
}

// SoccerPersistence wraps Nakama's storage engine with the three
// operations a persistence layer needs as external collaborators, using
// Nakama's StorageRead/StorageWrite pairing but re-keyed to per-user MMR records
// and append-only match history.
type SoccerPersistence struct {
	logger runtime.Logger
	nk     runtime.NakamaModule
}

func NewSoccerPersistence(logger runtime.Logger, nk runtime.NakamaModule) *SoccerPersistence {
	return &SoccerPersistence{logger: logger, nk: nk}
}

// FindStatsByUserID reads a player's persisted MMR record, creating a
// default (MMR 1000, no history) record if none exists yet.
func (sp *SoccerPersistence) FindStatsByUserID(ctx context.Context, userID, username string) (*PlayerStatsRecord, error) {
	objects, err := sp.nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: collectionSoccerStats, Key: userID, UserID: userID},
	})
	if err != nil {
		return nil, fmt.Errorf("read soccer stats for %s: %w", userID, err)
	}
	if len(objects) == 0 {
		return &PlayerStatsRecord{UserID: userID, Username: username, MMR: 1000}, nil
	}

	var record PlayerStatsRecord
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &record); err != nil {
		return nil, fmt.Errorf("unmarshal soccer stats for %s: %w", userID, err)
	}
	return &record, nil
}

// UpdateMMR persists the new MMR/win-streak/aggregate stats for one player.
func (sp *SoccerPersistence) UpdateMMR(ctx context.Context, record *PlayerStatsRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal soccer stats for %s: %w", record.UserID, err)
	}

	_, err = sp.nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      collectionSoccerStats,
			Key:             record.UserID,
			UserID:          record.UserID,
			Value:           string(data),
			PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	})
	if err != nil {
		return fmt.Errorf("write soccer stats for %s: %w", record.UserID, err)
	}
	return nil
}

// AddMatchHistory appends a completed match's summary, keyed by match ID,
// world-readable so stats CRUD routes outside this module can list it.
func (sp *SoccerPersistence) AddMatchHistory(ctx context.Context, entry *MatchHistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal match history %s: %w", entry.MatchID, err)
	}

	_, err = sp.nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      collectionMatchHistory,
			Key:             entry.MatchID,
			UserID:          "",
			Value:           string(data),
			PermissionRead:  runtime.STORAGE_PERMISSION_PUBLIC_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	})
	if err != nil {
		return fmt.Errorf("write match history %s: %w", entry.MatchID, err)
	}
	return nil
}

// MatchReportCSV renders a match history entry's per-player rows as CSV
// text, exposed through the soccer_matchreport RPC for offline analytics
// export, grounded on gocarina/gocsv's Marshal-to-string pattern.
func MatchReportCSV(entry *MatchHistoryEntry) (string, error) {
	return gocsv.MarshalString(&entry.Players)
}
