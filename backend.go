package main

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule registers the soccer match handler and the two analytics RPCs
// (soccer_metrics renders the Prometheus registry in text format,
// soccer_matchreport renders a completed match's per-player rows as CSV),
// registering one match type plus its supporting RPCs at module load.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := initializer.RegisterMatch("soccer_game", func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return &GameMatch{}, nil
	}); err != nil {
		logger.Error("unable to register soccer match: %v", err)
		return err
	}

	if err := initializer.RegisterRpc("soccer_metrics", rpcSoccerMetrics); err != nil {
		logger.Error("unable to register soccer_metrics rpc: %v", err)
		return err
	}

	if err := initializer.RegisterRpc("soccer_matchreport", rpcSoccerMatchReport); err != nil {
		logger.Error("unable to register soccer_matchreport rpc: %v", err)
		return err
	}

	logger.Info("soccer module loaded")
	return nil
}

// rpcSoccerMetrics renders a match's local Prometheus registry in text
// format. The payload must carry the matchId so the RPC can target a
// specific live match's registry; metrics live on the match actor, not a
// package-level singleton, so this RPC signals the match via MatchSignal and
// relays back whatever text the match actor reports.
func rpcSoccerMetrics(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req struct {
		MatchID string `json:"matchId"`
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", err
	}

	result, err := nk.MatchSignal(ctx, req.MatchID, `{"type":"metrics"}`)
	if err != nil {
		logger.Error("soccer_metrics: match signal failed: %v", err)
		return "", err
	}
	return result, nil
}

// rpcSoccerMatchReport renders a completed match's per-player stats as CSV,
// reading the persisted match-history entry rather than live match state.
func rpcSoccerMatchReport(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req struct {
		MatchID string `json:"matchId"`
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", err
	}

	objects, err := nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: collectionMatchHistory, Key: req.MatchID, UserID: ""},
	})
	if err != nil {
		return "", err
	}
	if len(objects) == 0 {
		return "", nil
	}

	var entry MatchHistoryEntry
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &entry); err != nil {
		return "", err
	}

	return MatchReportCSV(&entry)
}
