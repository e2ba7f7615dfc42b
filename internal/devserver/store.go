package devserver

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/foxzi/disparo/internal/models"
)

var (
	bucketCampaigns = []byte("campaigns")
	bucketLists     = []byte("lists")
	bucketContacts  = []byte("contacts")
	bucketTemplates = []byte("templates")
	bucketUploads   = []byte("uploads")
	bucketSends     = []byte("sends")
)

// ErrNotFound is returned when an entity does not exist
var ErrNotFound = errors.New("not found")

// Store persists the development backend in BoltDB
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) the database at path
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCampaigns, bucketLists, bucketContacts, bucketTemplates, bucketUploads, bucketSends} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func put(tx *bolt.Tx, bucket []byte, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", bucket, err)
	}
	return tx.Bucket(bucket).Put([]byte(key), data)
}

func get[T any](tx *bolt.Tx, bucket []byte, key string) (*T, error) {
	data := tx.Bucket(bucket).Get([]byte(key))
	if data == nil {
		return nil, ErrNotFound
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s %s: %w", bucket, key, err)
	}
	return v, nil
}

func all[T any](tx *bolt.Tx, bucket []byte) ([]T, error) {
	var out []T
	err := tx.Bucket(bucket).ForEach(func(k, v []byte) error {
		var item T
		if err := json.Unmarshal(v, &item); err != nil {
			return fmt.Errorf("failed to unmarshal %s %s: %w", bucket, k, err)
		}
		out = append(out, item)
		return nil
	})
	return out, err
}

func remove(tx *bolt.Tx, bucket []byte, key string) error {
	b := tx.Bucket(bucket)
	if b.Get([]byte(key)) == nil {
		return ErrNotFound
	}
	return b.Delete([]byte(key))
}

// Campaigns

// ListCampaigns returns campaigns, newest first
func (s *Store) ListCampaigns(ctx context.Context) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		campaigns, err = all[models.Campaign](tx, bucketCampaigns)
		return err
	})
	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CreatedAt.After(campaigns[j].CreatedAt)
	})
	return campaigns, err
}

func (s *Store) GetCampaign(ctx context.Context, id models.ID) (*models.Campaign, error) {
	var c *models.Campaign
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		c, err = get[models.Campaign](tx, bucketCampaigns, string(id))
		return err
	})
	return c, err
}

func (s *Store) PutCampaign(ctx context.Context, c *models.Campaign) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketCampaigns, string(c.ID), c)
	})
}

// UpdateCampaign applies fn to the stored campaign inside one transaction
func (s *Store) UpdateCampaign(ctx context.Context, id models.ID, fn func(*models.Campaign) error) (*models.Campaign, error) {
	var c *models.Campaign
	err := s.db.Update(func(tx *bolt.Tx) error {
		var err error
		c, err = get[models.Campaign](tx, bucketCampaigns, string(id))
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		return put(tx, bucketCampaigns, string(id), c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) DeleteCampaign(ctx context.Context, id models.ID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return remove(tx, bucketCampaigns, string(id))
	})
}

// Lists

// ListLists returns lists, newest first
func (s *Store) ListLists(ctx context.Context) ([]models.List, error) {
	var lists []models.List
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		lists, err = all[models.List](tx, bucketLists)
		return err
	})
	sort.Slice(lists, func(i, j int) bool {
		return lists[i].CreatedAt.After(lists[j].CreatedAt)
	})
	return lists, err
}

func (s *Store) GetList(ctx context.Context, id models.ID) (*models.List, error) {
	var l *models.List
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		l, err = get[models.List](tx, bucketLists, string(id))
		return err
	})
	return l, err
}

// CreateList stores a new list together with its raw upload
func (s *Store) CreateList(ctx context.Context, l *models.List, upload []byte, fileName string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := put(tx, bucketLists, string(l.ID), l); err != nil {
			return err
		}
		return put(tx, bucketUploads, string(l.ID), pendingUpload{FileName: fileName, Data: upload})
	})
}

// CompleteList stores the parsed contacts and the final list state, and
// drops the raw upload.
func (s *Store) CompleteList(ctx context.Context, l *models.List, contacts []models.Contact) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if _, err := get[models.List](tx, bucketLists, string(l.ID)); err != nil {
			return err
		}
		b := tx.Bucket(bucketContacts)
		for i := range contacts {
			data, err := json.Marshal(&contacts[i])
			if err != nil {
				return fmt.Errorf("failed to marshal contact: %w", err)
			}
			if err := b.Put(contactKey(l.ID, i), data); err != nil {
				return err
			}
		}
		if err := tx.Bucket(bucketUploads).Delete([]byte(l.ID)); err != nil {
			return err
		}
		return put(tx, bucketLists, string(l.ID), l)
	})
}

// DeleteList removes a list with its contacts and any pending upload
func (s *Store) DeleteList(ctx context.Context, id models.ID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := remove(tx, bucketLists, string(id)); err != nil {
			return err
		}
		prefix := contactPrefix(id)
		c := tx.Bucket(bucketContacts).Cursor()
		for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Seek(prefix) {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return tx.Bucket(bucketUploads).Delete([]byte(id))
	})
}

type pendingUpload struct {
	FileName string `json:"file_name"`
	Data     []byte `json:"data"`
}

// PendingUpload returns the raw file of a list still processing
func (s *Store) PendingUpload(ctx context.Context, id models.ID) (fileName string, data []byte, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		u, err := get[pendingUpload](tx, bucketUploads, string(id))
		if err != nil {
			return err
		}
		fileName, data = u.FileName, u.Data
		return nil
	})
	return fileName, data, err
}

// Contacts

func contactPrefix(listID models.ID) []byte {
	return []byte(string(listID) + "/")
}

func contactKey(listID models.ID, seq int) []byte {
	key := contactPrefix(listID)
	return binary.BigEndian.AppendUint64(key, uint64(seq))
}

func hasPrefix(k, prefix []byte) bool {
	return len(k) >= len(prefix) && string(k[:len(prefix)]) == string(prefix)
}

// ContactsPage returns one page of a list's contacts in upload order
func (s *Store) ContactsPage(ctx context.Context, listID models.ID, page, limit int) ([]models.Contact, int, error) {
	contacts := []models.Contact{}
	total := 0
	offset := (page - 1) * limit

	err := s.db.View(func(tx *bolt.Tx) error {
		prefix := contactPrefix(listID)
		c := tx.Bucket(bucketContacts).Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			if total >= offset && len(contacts) < limit {
				var ct models.Contact
				if err := json.Unmarshal(v, &ct); err != nil {
					return fmt.Errorf("failed to unmarshal contact: %w", err)
				}
				contacts = append(contacts, ct)
			}
			total++
		}
		return nil
	})
	return contacts, total, err
}

// Templates

// ListTemplates returns templates, newest first
func (s *Store) ListTemplates(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		templates, err = all[models.Template](tx, bucketTemplates)
		return err
	})
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].CreatedAt.After(templates[j].CreatedAt)
	})
	return templates, err
}

func (s *Store) GetTemplate(ctx context.Context, id models.ID) (*models.Template, error) {
	var t *models.Template
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		t, err = get[models.Template](tx, bucketTemplates, string(id))
		return err
	})
	return t, err
}

func (s *Store) PutTemplate(ctx context.Context, t *models.Template) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketTemplates, string(t.ID), t)
	})
}

func (s *Store) DeleteTemplate(ctx context.Context, id models.ID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return remove(tx, bucketTemplates, string(id))
	})
}

// Daily send counters

func dayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

func sendKey(day string, campaignID models.ID) string {
	if campaignID == "" {
		return day
	}
	return day + "/" + string(campaignID)
}

func readCount(b *bolt.Bucket, key string) int {
	v := b.Get([]byte(key))
	if len(v) != 8 {
		return 0
	}
	return int(binary.BigEndian.Uint64(v))
}

func writeCount(b *bolt.Bucket, key string, n int) error {
	return b.Put([]byte(key), binary.BigEndian.AppendUint64(nil, uint64(n)))
}

// SentOn returns the emails sent on day, system-wide when campaignID is
// empty.
func (s *Store) SentOn(ctx context.Context, day time.Time, campaignID models.ID) (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = readCount(tx.Bucket(bucketSends), sendKey(dayKey(day), campaignID))
		return nil
	})
	return n, err
}

// RecordSends advances a campaign by n sends on day. It updates the
// campaign, its daily counter and the system-wide counter atomically.
// A non-nil error from fn aborts the transaction.
func (s *Store) RecordSends(ctx context.Context, day time.Time, id models.ID, n int, fn func(*models.Campaign) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		c, err := get[models.Campaign](tx, bucketCampaigns, string(id))
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		if err := put(tx, bucketCampaigns, string(id), c); err != nil {
			return err
		}

		b := tx.Bucket(bucketSends)
		d := dayKey(day)
		if err := writeCount(b, sendKey(d, id), readCount(b, sendKey(d, id))+n); err != nil {
			return err
		}
		return writeCount(b, sendKey(d, ""), readCount(b, sendKey(d, ""))+n)
	})
}

// RecentSends returns system-wide sends of the last days ending at now,
// oldest first
func (s *Store) RecentSends(ctx context.Context, now time.Time, days int) ([]models.DailySends, error) {
	out := make([]models.DailySends, 0, days)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSends)
		for i := days - 1; i >= 0; i-- {
			d := dayKey(now.AddDate(0, 0, -i))
			out = append(out, models.DailySends{Date: d, EmailsSent: readCount(b, d)})
		}
		return nil
	})
	return out, err
}
