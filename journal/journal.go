// Package journal records world events into a SQLite database.
//
// Rows are written by a background goroutine in batched transactions. When
// the writer falls behind, new events are dropped and counted rather than
// stalling the simulation.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/akmonengine/voxelphys"
	"github.com/akmonengine/voxelphys/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DEFAULT_BUFFER = 65536
	commitEvery    = 1000
)

var ErrEmptyPath = errors.New("journal: empty db path")

// Entry is one recorded event. EntityB is zero unless the event is a contact.
type Entry struct {
	Tick     uint64
	Seq      int
	Type     string
	EntityA  uint64
	EntityB  uint64
	Position mgl64.Vec3
	// block collision only
	Horizontal bool
	Vertical   bool
}

type request struct {
	entry Entry
	flush chan struct{}
}

type Journal struct {
	db     *sql.DB
	Logger *slog.Logger

	ch   chan request
	wg   sync.WaitGroup
	once sync.Once

	// guards closed and every send on ch
	mu      sync.Mutex
	closed  bool
	dropped atomic.Uint64

	// sequencing, owned by the goroutine that records
	lastTick uint64
	seq      int
}

func Open(path string) (*Journal, error) {
	return OpenBuffered(path, DEFAULT_BUFFER)
}

// OpenBuffered opens the journal with room for buffer pending events.
func OpenBuffered(path string, buffer int) (*Journal, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	j := &Journal{
		db: db,
		ch: make(chan request, max(1, buffer)),
	}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.loop()
	}()

	return j, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			entity_a INTEGER NOT NULL,
			entity_b INTEGER NOT NULL DEFAULT 0,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL,
			horizontal INTEGER NOT NULL DEFAULT 0,
			vertical INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS events_entity_a ON events(entity_a);`,
		`CREATE INDEX IF NOT EXISTS events_entity_b ON events(entity_b);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Attach subscribes the journal to the events of w. With no types given,
// every event but CONTACT_STAY is recorded.
func (j *Journal) Attach(w *voxelphys.World, types ...voxelphys.EventType) {
	if len(types) == 0 {
		types = []voxelphys.EventType{
			voxelphys.CONTACT_ENTER,
			voxelphys.CONTACT_EXIT,
			voxelphys.BLOCK_COLLISION,
			voxelphys.LANDED,
		}
	}

	// events are flushed before the tick counter moves
	listener := func(event voxelphys.Event) {
		j.Record(w.Tick()+1, event)
	}
	for _, t := range slices.Compact(slices.Sorted(slices.Values(types))) {
		w.Events.Subscribe(t, listener)
	}
}

// Record queues one event. Calls must not overlap each other; a call after
// Close is ignored.
func (j *Journal) Record(tick uint64, event voxelphys.Event) {
	if j == nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}

	if tick != j.lastTick {
		j.lastTick = tick
		j.seq = 0
	}
	entry, ok := entryOf(event)
	if !ok {
		return
	}
	entry.Tick = tick
	entry.Seq = j.seq
	j.seq++

	select {
	case j.ch <- request{entry: entry}:
	default:
		j.dropped.Add(1)
	}
}

func entryOf(event voxelphys.Event) (Entry, bool) {
	entry := Entry{Type: event.Type().String()}

	var a, b *actor.Entity
	switch e := event.(type) {
	case voxelphys.ContactEnterEvent:
		a, b = e.EntityA, e.EntityB
	case voxelphys.ContactStayEvent:
		a, b = e.EntityA, e.EntityB
	case voxelphys.ContactExitEvent:
		a, b = e.EntityA, e.EntityB
	case voxelphys.BlockCollisionEvent:
		a = e.Entity
		entry.Horizontal = e.Horizontal
		entry.Vertical = e.Vertical
	case voxelphys.LandedEvent:
		a = e.Entity
	default:
		return entry, false
	}

	entry.EntityA = a.ID
	entry.Position = a.Position
	if b != nil {
		entry.EntityB = b.ID
	}
	return entry, true
}

// Dropped returns the number of events lost to a full buffer or a failed write.
func (j *Journal) Dropped() uint64 {
	return j.dropped.Load()
}

// Flush waits until every queued event is committed. It returns at once
// after Close.
func (j *Journal) Flush(ctx context.Context) error {
	done := make(chan struct{})

	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	select {
	case j.ch <- request{flush: done}:
		j.mu.Unlock()
	case <-ctx.Done():
		j.mu.Unlock()
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Journal) Close() error {
	var err error
	j.once.Do(func() {
		j.mu.Lock()
		j.closed = true
		close(j.ch)
		j.mu.Unlock()

		j.wg.Wait()
		if n := j.dropped.Load(); n > 0 {
			j.logger().Warn("journal dropped events", "count", n)
		}
		err = j.db.Close()
	})
	return err
}

func (j *Journal) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return j.Logger
}

func (j *Journal) loop() {
	ctx := context.Background()

	insert, err := j.db.Prepare(`INSERT OR REPLACE INTO events(tick,seq,type,entity_a,entity_b,x,y,z,horizontal,vertical) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		j.logger().Error("journal prepare", "err", err)
		for r := range j.ch {
			if r.flush != nil {
				close(r.flush)
			}
		}
		return
	}
	defer insert.Close()

	var (
		tx      *sql.Tx
		opCount int
	)
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			j.logger().Error("journal commit", "err", err, "rows", opCount)
			j.dropped.Add(uint64(opCount))
		}
		tx = nil
		opCount = 0
	}

	for r := range j.ch {
		if r.flush != nil {
			commit()
			close(r.flush)
			continue
		}

		if tx == nil {
			tx, err = j.db.BeginTx(ctx, nil)
			if err != nil {
				j.logger().Error("journal begin", "err", err)
				j.dropped.Add(1)
				continue
			}
		}

		e := r.entry
		if _, err := tx.Stmt(insert).Exec(
			int64(e.Tick), e.Seq, e.Type,
			int64(e.EntityA), int64(e.EntityB),
			e.Position.X(), e.Position.Y(), e.Position.Z(),
			boolInt(e.Horizontal), boolInt(e.Vertical),
		); err != nil {
			// sqlite undoes only the failed statement, the earlier rows stay in tx
			j.logger().Error("journal insert", "err", err, "tick", e.Tick, "seq", e.Seq)
			j.dropped.Add(1)
		} else {
			opCount++
		}

		if opCount >= commitEvery || len(j.ch) == 0 {
			commit()
		}
	}
	commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Entries returns the committed events of one entity, as either side of a
// contact, in tick order.
func (j *Journal) Entries(ctx context.Context, entityID uint64) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT tick,seq,type,entity_a,entity_b,x,y,z,horizontal,vertical FROM events
		WHERE entity_a = ? OR entity_b = ? ORDER BY tick, seq`,
		int64(entityID), int64(entityID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			tick, a, b int64
			x, y, z    float64
		)
		if err := rows.Scan(&tick, &e.Seq, &e.Type, &a, &b, &x, &y, &z, &e.Horizontal, &e.Vertical); err != nil {
			return nil, err
		}
		e.Tick = uint64(tick)
		e.EntityA = uint64(a)
		e.EntityB = uint64(b)
		e.Position = mgl64.Vec3{x, y, z}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of committed events of one type.
func (j *Journal) Count(ctx context.Context, eventType voxelphys.EventType) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE type = ?`, eventType.String()).Scan(&n)
	return n, err
}
