// Command headless runs Handlords games without a UI: an Albert bot plays
// both seats. Finished games are archived as parquet tick rows and indexed
// in SQLite; with -live set it instead runs a single real-time game and
// broadcasts snapshots to websocket spectators.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/brensch/handlords/ai"
	"github.com/brensch/handlords/config"
	"github.com/brensch/handlords/db"
	"github.com/brensch/handlords/game"
	"github.com/brensch/handlords/live"
	"github.com/brensch/handlords/logging"
	"github.com/brensch/handlords/rng"
	"github.com/brensch/handlords/sim"
	"github.com/brensch/handlords/store"
)

// maxTicksPerGame cuts off mirror-matchup stalemates.
const maxTicksPerGame = 20000

var totalTicks atomic.Int64
var totalGames atomic.Int64

type gameWriteRequest struct {
	rows []store.TickRow
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	configPath := fs.String("config", "", "Optional YAML run config")
	outDir := fs.String("out-dir", "data/runs", "Output directory for parquet tick batches")
	dbPath := fs.String("db", "data/results.db", "SQLite results index")
	workers := fs.Int("workers", 8, "Number of concurrent games")
	gamesPerFlush := fs.Int("games-per-flush", 50, "Games to buffer per parquet flush")
	maxGames := fs.Int64("max-games", 0, "If > 0, stop after this many games")
	liveAddr := fs.String("live", "", "If set, run one real-time game and serve spectators at this address (e.g. :8090)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	log := slog.New(logging.NewCompactJSONHandler(os.Stdout, nil))

	run := config.Default()
	if *configPath != "" {
		var err error
		run, err = config.Load(*configPath)
		if err != nil {
			log.Error("load config", "err", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *liveAddr != "" {
		if err := runLive(ctx, log, run, *liveAddr); err != nil {
			log.Error("live run failed", "err", err)
			os.Exit(1)
		}
		return
	}

	results, err := db.New(*dbPath)
	if err != nil {
		log.Error("open results db", "err", err)
		os.Exit(1)
	}
	defer results.Close()

	runBatch(ctx, stop, log, run, results, *outDir, *workers, *gamesPerFlush, *maxGames)
}

func runBatch(ctx context.Context, cancel context.CancelFunc, log *slog.Logger, run config.Run, results *db.DB, outDir string, workers, gamesPerFlush int, maxGames int64) {
	writeReqs := make(chan gameWriteRequest, workers*4)
	writerDone := make(chan struct{})
	go func() {
		parquetWriterLoop(log, outDir, gamesPerFlush, writeReqs)
		close(writerDone)
	}()

	log.Info("starting batch run", "workers", workers, "out_dir", outDir, "rng_kind", string(run.RngKind))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for gameNum := 0; ; gameNum++ {
				select {
				case <-ctx.Done():
					return
				default:
				}

				seed := workerSeed(run, workerID, gameNum)
				rows, result, err := playGame(ctx, log, run, workerID, seed)
				if err != nil {
					log.Error("game failed", "worker", workerID, "err", err)
					continue
				}

				writeReqs <- gameWriteRequest{rows: rows}
				if err := results.InsertResult(result); err != nil {
					log.Error("index result", "game", result.ID, "err", err)
				}
				log.Info("game finished",
					"worker", workerID, "game", result.ID,
					"winner", result.Winner, "ticks", result.Ticks)

				if total := totalGames.Add(1); maxGames > 0 && total >= maxGames {
					cancel()
					return
				}
			}
		}(i)
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown requested, draining workers")
			wg.Wait()
			close(writeReqs)
			<-writerDone
			log.Info("shutdown complete", "games", totalGames.Load())
			return
		case <-ticker.C:
			elapsed := time.Since(start).Seconds()
			log.Info("progress",
				"games", totalGames.Load(),
				"ticks_per_sec", fmt.Sprintf("%.0f", float64(totalTicks.Load())/elapsed))
		}
	}
}

// workerSeed spreads deterministic runs across workers and games so every
// game still replays from its recorded seed. System-rng runs get seed 0.
func workerSeed(run config.Run, workerID, gameNum int) uint16 {
	if run.RngKind != rng.KindLFSR {
		return 0
	}
	seed := run.Seed + uint16(workerID*7919) + uint16(gameNum*104729)
	if seed == 0 {
		seed = rng.DefaultSeed
	}
	return seed
}

// playGame runs one bot-versus-bot game to a terminal phase, returning its
// archive rows and result record.
func playGame(ctx context.Context, log *slog.Logger, run config.Run, workerID int, seed uint16) ([]store.TickRow, db.Result, error) {
	r := run
	r.Seed = seed
	e, err := r.NewEngine()
	if err != nil {
		return nil, db.Result{}, err
	}
	gameID := fmt.Sprintf("hl_%d_%d", time.Now().UnixNano(), workerID)
	e.Start()

	rows := make([]store.TickRow, 0, 1024)
	for e.State.Phase == game.Playing && e.State.Tick < maxTicksPerGame {
		if ctx.Err() != nil {
			break
		}
		e.Step()
		// The engine only drives AI seats; in a bot-versus-bot game the
		// human seat gets an Albert of its own.
		ai.Update(e.State, &e.State.Players[0])
		totalTicks.Add(1)
		rows = append(rows, store.RowFromSnapshot(gameID, e.Snapshot()))
	}

	winner := -1
	switch e.State.Phase {
	case game.Won:
		winner = 0
	case game.Lost:
		winner = 1
	default:
		log.Warn("game cut off", "game", gameID, "ticks", e.State.Tick)
	}

	return rows, db.Result{
		ID:        gameID,
		Winner:    winner,
		Ticks:     int(e.State.Tick),
		Seed:      seed,
		RngKind:   string(run.RngKind),
		PairsRate: e.State.Cfg.PairsPerTick,
	}, nil
}

// advanceLive runs the whole ticks that fit into elapsed, driving the bot
// on the human seat after every tick exactly as playGame does. The per-tick
// pacing matters: the bot's schedule check and rng draws must interleave
// with each tick's duels, not run once at the end of a catch-up burst.
func advanceLive(e *sim.Engine, acc *time.Duration, elapsed time.Duration) int {
	*acc += elapsed
	steps := 0
	for *acc >= e.TickInterval() {
		*acc -= e.TickInterval()
		e.Step()
		ai.Update(e.State, &e.State.Players[0])
		steps++
	}
	return steps
}

func runLive(ctx context.Context, log *slog.Logger, run config.Run, addr string) error {
	e, err := run.NewEngine()
	if err != nil {
		return err
	}
	hub := live.NewHub(log)
	defer hub.Close()

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("live spectator server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("live server", "err", err)
		}
	}()
	defer srv.Shutdown(context.Background())

	e.Start()
	last := time.Now()
	var acc time.Duration
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if steps := advanceLive(e, &acc, now.Sub(last)); steps > 0 {
				hub.Broadcast(e.Snapshot())
			}
			last = now
			if e.State.Phase != game.Playing && e.State.Phase != game.Ready {
				log.Info("game over, restarting", "phase", e.State.Phase.String(), "ticks", e.State.Tick)
				hub.Broadcast(e.Snapshot())
				time.Sleep(2 * time.Second)
				e.Restart()
				e.Start()
				acc = 0
				last = time.Now()
			}
		}
	}
}

// parquetWriterLoop streams each finished game into the open shard and
// publishes it every gamesPerFlush games, so memory stays flat no matter
// how long the run is.
func parquetWriterLoop(log *slog.Logger, outDir string, gamesPerFlush int, in <-chan gameWriteRequest) {
	if gamesPerFlush <= 0 {
		gamesPerFlush = 50
	}

	var w *store.BatchWriter

	publish := func() {
		if w == nil {
			return
		}
		games, rows := w.Games(), w.Rows()
		outPath, err := w.Finalize()
		w = nil
		if err != nil {
			log.Error("parquet flush failed", "games", games, "rows", rows, "err", err)
			return
		}
		log.Info("parquet flush ok", "path", outPath, "games", games, "rows", rows)
	}

	for req := range in {
		if len(req.rows) == 0 {
			continue
		}
		if w == nil {
			var err error
			w, err = store.NewBatchWriter(outDir)
			if err != nil {
				log.Error("open parquet shard", "err", err)
				continue
			}
		}
		if err := w.Append(req.rows); err != nil {
			log.Error("append game rows", "rows", len(req.rows), "err", err)
			continue
		}
		if w.Games() >= gamesPerFlush {
			publish()
		}
	}
	publish()
}
