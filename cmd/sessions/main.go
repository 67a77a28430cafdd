// sessions - Inspect the step journal left behind by automation runs
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jwebster45206/questline/internal/journal"
	"github.com/jwebster45206/questline/pkg/gamemap"
)

func main() {
	dbPath := flag.String("db", "questline.db", "SQLite journal path")
	sessionID := flag.String("session", "", "show one session in detail")
	showSteps := flag.Bool("steps", false, "dump every step of the session")
	limit := flag.Int("limit", 10, "sessions to list")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	j, err := journal.Open(*dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open journal: %v\n", err)
		os.Exit(1)
	}
	defer j.Close()

	ctx := context.Background()
	atlas := gamemap.Default()

	if *sessionID == "" {
		listSessions(ctx, j, atlas, *limit)
		return
	}
	showSession(ctx, j, atlas, *sessionID, *showSteps)
}

func listSessions(ctx context.Context, j *journal.Journal, atlas *gamemap.Atlas, limit int) {
	sessions, err := j.RecentSessions(ctx, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list sessions: %v\n", err)
		os.Exit(1)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded.")
		return
	}

	fmt.Printf("%-18s %-20s %-10s %8s %8s  %s\n",
		"SESSION", "STARTED", "DURATION", "STEPS", "QUESTS", "FINAL MAP")
	for _, s := range sessions {
		duration := "running"
		if s.EndedAt != nil {
			duration = s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
		}
		fmt.Printf("%-18s %-20s %-10s %8d %5d/%-2d  %s\n",
			s.ID,
			s.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
			s.TotalSteps,
			s.QuestsDone, s.QuestsTotal,
			atlas.Name(gamemap.ID(s.FinalMap)))
	}
}

func showSession(ctx context.Context, j *journal.Journal, atlas *gamemap.Atlas, id string, withSteps bool) {
	s, err := j.Session(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load session %s: %v\n", id, err)
		os.Exit(1)
	}

	fmt.Printf("Session:   %s\n", s.ID)
	fmt.Printf("Started:   %s\n", s.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if s.EndedAt != nil {
		fmt.Printf("Ended:     %s (%s)\n",
			s.EndedAt.Local().Format("2006-01-02 15:04:05"),
			s.EndedAt.Sub(s.StartedAt).Round(time.Second))
	} else {
		fmt.Println("Ended:     still running")
	}
	fmt.Printf("Steps:     %d\n", s.TotalSteps)
	fmt.Printf("Quests:    %d/%d\n", s.QuestsDone, s.QuestsTotal)
	fmt.Printf("Final map: %s\n", atlas.Name(gamemap.ID(s.FinalMap)))

	summaries, err := j.QuestSummaries(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load quest summaries: %v\n", err)
		os.Exit(1)
	}
	if len(summaries) > 0 {
		fmt.Println("\n--- Quest Breakdown ---")
		fmt.Printf("%-24s %8s %8s %8s %8s\n", "QUEST", "FROM", "TO", "STEPS", "STALLS")
		for _, qs := range summaries {
			fmt.Printf("%-24s %8d %8d %8d %8d\n",
				qs.Quest, qs.StartTick, qs.EndTick, qs.Steps, qs.Stalls)
		}
	}

	if !withSteps {
		return
	}

	steps, err := j.Steps(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load steps: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\n--- Steps ---")
	fmt.Printf("%6s %-22s %4s %4s %-8s %-10s %s\n", "TICK", "MAP", "X", "Y", "ACTION", "NAV", "QUEST")
	for _, st := range steps {
		fmt.Printf("%6d %-22s %4d %4d %-8s %-10s %s\n",
			st.Tick, atlas.Name(gamemap.ID(st.Map)), st.X, st.Y,
			st.Action, st.NavStatus, st.ActiveQuest)
	}
}
