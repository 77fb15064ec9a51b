package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/aquarium"
	"github.com/aretw0/aquarium/pkg/planner"
	"github.com/aretw0/aquarium/pkg/session"
)

func main() {
	count := flag.Int("count", 1000, "Number of tasks to add")
	adapter := flag.String("adapter", aquarium.AdapterFS, "Storage adapter: fs, sqlite or memory")
	gitless := flag.Bool("gitless", true, "Skip git commits on the fs adapter")
	pathWrites := flag.Bool("path-writes", false, "Write JSON patches instead of full documents")
	keep := flag.Bool("keep", false, "Keep the benchmark store after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "aquarium_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	uri := benchDir
	if *adapter == aquarium.AdapterSQLite {
		uri = filepath.Join(benchDir, "bench.db")
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store, err := aquarium.Init(uri,
		aquarium.WithAdapter(*adapter),
		aquarium.WithAutoInit(true),
		aquarium.WithVersioning(!*gitless),
		aquarium.WithLogger(logger),
	)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	open := func() *session.Session {
		sess := session.New(store, session.WithLogger(logger), session.WithPathWrites(*pathWrites))
		if err := sess.Open(ctx, "bench"); err != nil {
			panic(err)
		}
		<-sess.Ready()
		return sess
	}

	// Run 1: every task lands on its own day so the calendar grows with count.
	fmt.Printf("Adding %d tasks (%s, path writes: %v)...\n", *count, *adapter, *pathWrites)
	sess := open()
	start := time.Now()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	for i := 0; i < *count; i++ {
		if _, err := sess.Dispatch(ctx, planner.SelectDate(day.AddDate(0, 0, i%366))); err != nil {
			panic(err)
		}
		if _, err := sess.Dispatch(ctx, planner.AddTask(fmt.Sprintf("Task %d", i))); err != nil {
			panic(err)
		}
	}
	dispatched := time.Since(start)
	if err := sess.Flush(ctx); err != nil {
		panic(err)
	}
	written := time.Since(start)
	if err := sess.Close(ctx); err != nil {
		panic(err)
	}

	// Run 2: a fresh session loading the grown room.
	start = time.Now()
	sess = open()
	loaded := time.Since(start)
	doc, err := sess.Document(ctx)
	if err != nil {
		panic(err)
	}
	_ = sess.Close(ctx)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d tasks, %d days):\n", *count, len(doc.Calendar))
	fmt.Printf("  Dispatch: %v\n", dispatched)
	fmt.Printf("  Written:  %v (%.0f writes/s)\n", written, float64(*count)/written.Seconds())
	fmt.Printf("  Load:     %v\n", loaded)
	fmt.Printf("--------------------------------------------------\n")
}
