package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"photo-versions-backend/internal/database"
	"photo-versions-backend/internal/metrics"
	"photo-versions-backend/internal/models"
)

const databaseBackend = "postgres"

// DatabaseClient is the Postgres metadata store.
type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// NewDatabaseClientFromDB wraps an existing handle.
func NewDatabaseClientFromDB(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{db: db}
}

func (d *DatabaseClient) DB() *sql.DB {
	return d.db
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

func (d *DatabaseClient) Ping(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, database.PingSQL)
	return err
}

func (d *DatabaseClient) PutPhoto(ctx context.Context, photo *models.Photo) (err error) {
	defer observe("put", time.Now(), &err)

	attrs, err := marshalAttributes(photo.Attrs)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx, database.InsertPhotoSQL,
		photo.ID, photo.OwnerID, string(photo.Status), string(photo.VersionType()), photo.HasEditedVersion(),
		photo.Original.Filename, photo.Original.ContentType, photo.Original.SizeBytes,
		photo.Original.BlobKey, photo.Original.BucketID,
		attrs, photo.CreatedAt, photo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

func (d *DatabaseClient) GetPhoto(ctx context.Context, photoID string) (photo *models.Photo, err error) {
	defer observe("get", time.Now(), &err)

	photo, err = scanPhoto(d.db.QueryRowContext(ctx, database.GetPhotoSQL, photoID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return photo, nil
}

// UpdatePhoto applies every set field of update in one transaction.
func (d *DatabaseClient) UpdatePhoto(ctx context.Context, photoID string, update models.PhotoUpdate) (err error) {
	defer observe("update", time.Now(), &err)

	type stmt struct {
		query string
		args  []interface{}
	}
	var stmts []stmt
	if update.Status != nil {
		stmts = append(stmts, stmt{database.UpdatePhotoStatusSQL, []interface{}{photoID, string(*update.Status), update.UpdatedAt}})
	}
	if e := update.Edited; e != nil {
		stmts = append(stmts, stmt{database.UpdatePhotoEditedSQL, []interface{}{
			photoID, e.Filename, e.ContentType, e.SizeBytes, e.BlobKey, e.BucketID, e.EditCount, update.UpdatedAt,
		}})
	}
	if update.Attrs != nil {
		attrs, err := marshalAttributes(update.Attrs)
		if err != nil {
			return err
		}
		stmts = append(stmts, stmt{database.UpdatePhotoAttributesSQL, []interface{}{photoID, attrs, update.UpdatedAt}})
	}
	if len(stmts) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, s := range stmts {
		res, err := tx.ExecContext(ctx, s.query, s.args...)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update photo: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			_ = tx.Rollback()
			return models.ErrPhotoNotFound
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit photo update: %w", err)
	}
	return nil
}

func (d *DatabaseClient) DeletePhoto(ctx context.Context, photoID string) (err error) {
	defer observe("delete", time.Now(), &err)

	res, err := d.db.ExecContext(ctx, database.DeletePhotoSQL, photoID)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrPhotoNotFound
	}
	return nil
}

// QueryPhotosByOwner reads one keyset page. It fetches one extra row to learn
// whether another page exists.
func (d *DatabaseClient) QueryPhotosByOwner(ctx context.Context, query models.PhotoQuery) (page *models.PhotoPage, err error) {
	defer observe("query", time.Now(), &err)

	var afterTime interface{}
	var afterID interface{}
	if query.After != nil {
		afterTime = query.After.CreatedAt
		afterID = query.After.PhotoID
	}

	var rows *sql.Rows
	if query.VersionType != "" {
		rows, err = d.db.QueryContext(ctx, database.ListPhotosByOwnerVersionSQL,
			query.OwnerID, afterTime, afterID, query.Limit+1, string(query.VersionType))
	} else {
		rows, err = d.db.QueryContext(ctx, database.ListPhotosByOwnerSQL,
			query.OwnerID, afterTime, afterID, query.Limit+1)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	photos := make([]*models.Photo, 0, query.Limit)
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}

	page = &models.PhotoPage{Photos: photos}
	if len(photos) > query.Limit {
		page.Photos = photos[:query.Limit]
		last := page.Photos[len(page.Photos)-1]
		page.Next = &models.PageKey{CreatedAt: last.CreatedAt, PhotoID: last.ID}
	}
	return page, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPhoto(row rowScanner) (*models.Photo, error) {
	var (
		photo          models.Photo
		status         string
		versionType    string
		hasEdited      bool
		editedFilename sql.NullString
		editedType     sql.NullString
		editedSize     sql.NullInt64
		editedKey      sql.NullString
		editedBucket   sql.NullString
		editCount      int
		attrs          []byte
	)
	err := row.Scan(
		&photo.ID, &photo.OwnerID, &status, &versionType, &hasEdited,
		&photo.Original.Filename, &photo.Original.ContentType, &photo.Original.SizeBytes,
		&photo.Original.BlobKey, &photo.Original.BucketID,
		&editedFilename, &editedType, &editedSize, &editedKey, &editedBucket, &editCount,
		&attrs, &photo.CreatedAt, &photo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	photo.Status = models.PhotoStatus(status)
	if hasEdited && editedKey.Valid {
		photo.Edited = &models.EditedVersion{
			VersionInfo: models.VersionInfo{
				Filename:    editedFilename.String,
				ContentType: editedType.String,
				SizeBytes:   editedSize.Int64,
				BlobKey:     editedKey.String,
				BucketID:    editedBucket.String,
			},
			EditCount: editCount,
		}
	}
	photo.Attrs = models.Attributes{}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &photo.Attrs); err != nil {
			return nil, fmt.Errorf("failed to decode attributes: %w", err)
		}
	}
	photo.CreatedAt = photo.CreatedAt.UTC()
	photo.UpdatedAt = photo.UpdatedAt.UTC()
	return &photo, nil
}

func marshalAttributes(attrs models.Attributes) ([]byte, error) {
	if attrs == nil {
		attrs = models.Attributes{}
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attributes: %w", err)
	}
	return raw, nil
}

func observe(operation string, start time.Time, err *error) {
	metrics.RecordMetadataOperation(databaseBackend, operation, *err, time.Since(start).Seconds())
}
