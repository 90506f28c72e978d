// Package store persists teleprompter scripts in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/ByLCY/prompter/fonts"
	"github.com/ByLCY/prompter/log"
	"github.com/ByLCY/prompter/script"
)

// DefaultLimit is the page size of List when none is given.
const DefaultLimit = 100

// ErrNotFound is returned when no script has the requested id.
var ErrNotFound = errors.New("script not found")

//go:embed migrations/*.sql
var migrations embed.FS

// Script is one stored record.
type Script struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Speed         float64    `json:"speed"`
	FontSize      fonts.Size `json:"font_size"`
	MirrorMode    bool       `json:"mirror_mode"`
	ShowFocusLine bool       `json:"show_focus_line"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

// Settings converts the record into renderer settings.
func (s Script) Settings() script.Settings {
	return script.Settings{
		Title:         s.Title,
		Speed:         s.Speed,
		FontSize:      s.FontSize,
		MirrorMode:    s.MirrorMode,
		ShowFocusLine: s.ShowFocusLine,
		Script:        s.Content,
	}
}

// Fields carries optional values. On Create absent fields take their defaults and
// Content is required; on Update absent fields are left untouched.
type Fields struct {
	Title         *string     `json:"title,omitempty"`
	Content       *string     `json:"content,omitempty"`
	Speed         *float64    `json:"speed,omitempty"`
	FontSize      *fonts.Size `json:"font_size,omitempty"`
	MirrorMode    *bool       `json:"mirror_mode,omitempty"`
	ShowFocusLine *bool       `json:"show_focus_line,omitempty"`
}

// FieldsFrom builds a complete Fields value from settings.
func FieldsFrom(s script.Settings) Fields {
	return Fields{
		Title:         &s.Title,
		Content:       &s.Script,
		Speed:         &s.Speed,
		FontSize:      &s.FontSize,
		MirrorMode:    &s.MirrorMode,
		ShowFocusLine: &s.ShowFocusLine,
	}
}

func (f Fields) applyTo(s *Script) {
	if f.Title != nil {
		s.Title = *f.Title
	}
	if f.Content != nil {
		s.Content = *f.Content
	}
	if f.Speed != nil {
		s.Speed = *f.Speed
	}
	if f.FontSize != nil {
		s.FontSize = *f.FontSize
	}
	if f.MirrorMode != nil {
		s.MirrorMode = *f.MirrorMode
	}
	if f.ShowFocusLine != nil {
		s.ShowFocusLine = *f.ShowFocusLine
	}
}

// Store wraps the database handle.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the SQLite file at path (":memory:" for a private in-memory
// database) and applies pending migrations.
func Open(path string) (*Store, error) {
	log.Debug(log.CatDB, "Opening database", "path", path)
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		log.ErrorErr(log.CatDB, "Failed to open database", err, "path", path)
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		log.ErrorErr(log.CatDB, "Failed to ping database", err, "path", path)
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info(log.CatDB, "Connected to database", "path", path)
	return &Store{db: db, now: time.Now}, nil
}

func dsn(path string) string {
	if path == ":memory:" {
		return path
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)"
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("初始化迁移驱动失败: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移失败: %w", err)
	}
	// m.Close would close db as well; only the source is released here.
	defer src.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行数据库迁移失败: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const selectColumns = `id, title, content, speed, font_size, mirror_mode, show_focus_line, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScript(row rowScanner) (Script, error) {
	var (
		out       Script
		fontSize  string
		createdAt string
		updatedAt sql.NullString
	)
	if err := row.Scan(&out.ID, &out.Title, &out.Content, &out.Speed, &fontSize,
		&out.MirrorMode, &out.ShowFocusLine, &createdAt, &updatedAt); err != nil {
		return Script{}, err
	}
	out.FontSize = fonts.Size(fontSize)
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Script{}, fmt.Errorf("解析 created_at 失败: %w", err)
	}
	out.CreatedAt = t
	if updatedAt.Valid {
		u, err := time.Parse(time.RFC3339Nano, updatedAt.String)
		if err != nil {
			return Script{}, fmt.Errorf("解析 updated_at 失败: %w", err)
		}
		out.UpdatedAt = &u
	}
	return out, nil
}

// List returns one page of scripts ordered by id.
func (s *Store) List(ctx context.Context, skip, limit int) ([]Script, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM scripts ORDER BY id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("查询脚本列表失败: %w", err)
	}
	defer rows.Close()

	out := []Script{}
	for rows.Next() {
		sc, err := scanScript(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Get returns the script with id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (Script, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM scripts WHERE id = ?`, id)
	sc, err := scanScript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Script{}, ErrNotFound
	}
	if err != nil {
		return Script{}, fmt.Errorf("查询脚本 %d 失败: %w", id, err)
	}
	return sc, nil
}

// Create inserts a new script. Content is required; the rest default like
// script.Defaults.
func (s *Store) Create(ctx context.Context, f Fields) (Script, error) {
	if f.Content == nil {
		return Script{}, fmt.Errorf("%w: content is required", script.ErrInvalidSettings)
	}
	d := script.Defaults()
	sc := Script{
		Title:         d.Title,
		Speed:         d.Speed,
		FontSize:      d.FontSize,
		MirrorMode:    d.MirrorMode,
		ShowFocusLine: d.ShowFocusLine,
	}
	f.applyTo(&sc)
	if err := sc.Settings().Validate(); err != nil {
		return Script{}, err
	}
	sc.CreatedAt = s.now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scripts (title, content, speed, font_size, mirror_mode, show_focus_line, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sc.Title, sc.Content, sc.Speed, string(sc.FontSize), sc.MirrorMode, sc.ShowFocusLine,
		sc.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Script{}, fmt.Errorf("创建脚本失败: %w", err)
	}
	if sc.ID, err = res.LastInsertId(); err != nil {
		return Script{}, fmt.Errorf("读取脚本 id 失败: %w", err)
	}
	log.Debug(log.CatDB, "script created", "id", sc.ID)
	return sc, nil
}

// Update applies a partial update and stamps updated_at.
func (s *Store) Update(ctx context.Context, id int64, f Fields) (Script, error) {
	sc, err := s.Get(ctx, id)
	if err != nil {
		return Script{}, err
	}
	f.applyTo(&sc)
	if err := sc.Settings().Validate(); err != nil {
		return Script{}, err
	}
	now := s.now().UTC()
	sc.UpdatedAt = &now

	_, err = s.db.ExecContext(ctx,
		`UPDATE scripts SET title = ?, content = ?, speed = ?, font_size = ?, mirror_mode = ?,
		 show_focus_line = ?, updated_at = ? WHERE id = ?`,
		sc.Title, sc.Content, sc.Speed, string(sc.FontSize), sc.MirrorMode, sc.ShowFocusLine,
		now.Format(time.RFC3339Nano), id)
	if err != nil {
		return Script{}, fmt.Errorf("更新脚本 %d 失败: %w", id, err)
	}
	log.Debug(log.CatDB, "script updated", "id", id)
	return sc, nil
}

// Delete removes the script with id or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scripts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("删除脚本 %d 失败: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("删除脚本 %d 失败: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	log.Debug(log.CatDB, "script deleted", "id", id)
	return nil
}
