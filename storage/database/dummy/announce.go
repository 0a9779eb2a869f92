package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/zombieTDV/studentms/core/announce"
)

type announcementRepository struct {
	db *announcementTable
}

var _ announce.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *DB) announce.Repository {
	return &announcementRepository{db: db.announcement}
}

func (repo *announcementRepository) Insert(_ context.Context, a announce.Announcement) (string, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = uuid.NewString()
	repo.db.table[a.ID] = &a
	repo.db.order = append(repo.db.order, a.ID)
	return a.ID, nil
}

func (repo *announcementRepository) GetByID(_ context.Context, id string) (announce.Announcement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return *a, nil
	}
	return announce.Announcement{}, announce.ErrNotFound
}

func (repo *announcementRepository) AllByStatus(_ context.Context, status announce.Status) ([]announce.Announcement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	// iterate in insertion order so equal timestamps keep a stable order
	var all []announce.Announcement
	for _, id := range repo.db.order {
		if a := repo.db.table[id]; a.Status == status {
			all = append(all, *a)
		}
	}
	// newest first
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, nil
}

func (repo *announcementRepository) Update(_ context.Context, a announce.Announcement) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[a.ID]
	if !ok {
		return announce.ErrNotFound
	}
	orig.Title = a.Title
	orig.Content = a.Content
	orig.Status = a.Status
	return nil
}

func (repo *announcementRepository) Delete(_ context.Context, id string) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return false, nil
	}
	delete(repo.db.table, id)
	repo.db.order = removeID(repo.db.order, id)
	return true, nil
}
