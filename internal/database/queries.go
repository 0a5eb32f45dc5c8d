package database

const (
	CreateMigrationsTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)`

	MigrationAppliedSQL = `SELECT COUNT(*) FROM schema_migrations WHERE name = $1`

	RecordMigrationSQL = `INSERT INTO schema_migrations (name, applied_at) VALUES ($1, NOW())`
)

// photoColumns is the select list shared by every photo read.
const photoColumns = `photo_id, user_id, status, version_type, has_edited_version,
		original_filename, original_content_type, original_file_size, original_s3_key, original_bucket,
		edited_filename, edited_content_type, edited_file_size, edited_s3_key, edited_bucket, edit_count,
		attributes, created_at, updated_at`

const (
	InsertPhotoSQL = `
		INSERT INTO photos (
			photo_id, user_id, status, version_type, has_edited_version,
			original_filename, original_content_type, original_file_size, original_s3_key, original_bucket,
			attributes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	GetPhotoSQL = `SELECT ` + photoColumns + ` FROM photos WHERE photo_id = $1`

	UpdatePhotoStatusSQL = `
		UPDATE photos
		SET status = $2, updated_at = $3
		WHERE photo_id = $1`

	UpdatePhotoEditedSQL = `
		UPDATE photos
		SET version_type = 'edited', has_edited_version = TRUE,
			edited_filename = $2, edited_content_type = $3, edited_file_size = $4,
			edited_s3_key = $5, edited_bucket = $6, edit_count = $7, updated_at = $8
		WHERE photo_id = $1`

	UpdatePhotoAttributesSQL = `
		UPDATE photos
		SET attributes = $2, updated_at = $3
		WHERE photo_id = $1`

	DeletePhotoSQL = `DELETE FROM photos WHERE photo_id = $1`

	// Keyset pagination: ($2, $3) is the last row of the previous page, or
	// NULL for the first page.
	ListPhotosByOwnerSQL = `
		SELECT ` + photoColumns + `
		FROM photos
		WHERE user_id = $1
		  AND ($2::timestamptz IS NULL OR (created_at, photo_id) < ($2, $3))
		ORDER BY created_at DESC, photo_id DESC
		LIMIT $4`

	ListPhotosByOwnerVersionSQL = `
		SELECT ` + photoColumns + `
		FROM photos
		WHERE user_id = $1 AND version_type = $5
		  AND ($2::timestamptz IS NULL OR (created_at, photo_id) < ($2, $3))
		ORDER BY created_at DESC, photo_id DESC
		LIMIT $4`

	PingSQL = `SELECT 1`
)
