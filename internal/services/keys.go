package services

import "fmt"

// Buckets names the two logical blob buckets.
type Buckets struct {
	Originals string
	Edited    string
}

// OriginalKey is the blob key of an original upload:
// {owner_id}/originals/{photo_id}/{filename}.
func OriginalKey(ownerID, photoID, filename string) string {
	return fmt.Sprintf("%s/originals/%s/%s", ownerID, photoID, filename)
}

// EditedKey is the blob key of the first edit of a photo:
// {owner_id}/edited/{photo_id}/{filename}. Later edits reuse the stored key.
func EditedKey(ownerID, photoID, filename string) string {
	return fmt.Sprintf("%s/edited/%s/%s", ownerID, photoID, filename)
}
