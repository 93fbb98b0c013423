package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ericpark25/comic-vault/internal/repository"
	"github.com/ericpark25/comic-vault/models"
)

// comicRepository реализует repository.ComicRepository в памяти.
type comicRepository struct {
	access access
	now    func() time.Time
}

func (r *comicRepository) FindAll(_ context.Context) ([]models.Comic, error) {
	var comics []models.Comic
	err := r.access.read(func(st *state) error {
		comics = make([]models.Comic, 0, len(st.comics))
		for _, id := range sortedIDs(st.comics) {
			comics = append(comics, st.comics[id])
		}
		return nil
	})
	return comics, err
}

func (r *comicRepository) FindByID(_ context.Context, id int64) (*models.Comic, error) {
	var comic models.Comic
	err := r.access.read(func(st *state) error {
		c, ok := st.comics[id]
		if !ok {
			return repository.ErrComicNotFound
		}
		comic = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comic, nil
}

func (r *comicRepository) Create(_ context.Context, comic *models.Comic) error {
	return r.access.write(func(st *state) error {
		if skuTaken(st, comic.SKU, 0) {
			return repository.ErrDuplicateSKU
		}
		st.comicSeq++
		now := r.now()
		comic.ID = st.comicSeq
		comic.CreatedAt = now
		comic.UpdatedAt = now
		st.comics[comic.ID] = *comic
		return nil
	})
}

func (r *comicRepository) Update(_ context.Context, comic *models.Comic) error {
	return r.access.write(func(st *state) error {
		existing, ok := st.comics[comic.ID]
		if !ok {
			return repository.ErrComicNotFound
		}
		if skuTaken(st, comic.SKU, comic.ID) {
			return repository.ErrDuplicateSKU
		}
		comic.CreatedAt = existing.CreatedAt
		comic.UpdatedAt = r.now()
		st.comics[comic.ID] = *comic
		return nil
	})
}

func (r *comicRepository) Delete(_ context.Context, id int64) error {
	return r.access.write(func(st *state) error {
		if _, ok := st.comics[id]; !ok {
			return repository.ErrComicNotFound
		}
		for _, rec := range st.inventory {
			if rec.ComicID == id {
				return repository.ErrReferenced
			}
		}
		delete(st.comics, id)
		return nil
	})
}

func (r *comicRepository) ExistsByID(_ context.Context, id int64) (bool, error) {
	var found bool
	err := r.access.read(func(st *state) error {
		_, found = st.comics[id]
		return nil
	})
	return found, err
}

func skuTaken(st *state, sku string, exceptID int64) bool {
	for id, c := range st.comics {
		if id != exceptID && c.SKU == sku {
			return true
		}
	}
	return false
}

// vaultRepository реализует repository.VaultRepository в памяти.
type vaultRepository struct {
	access access
	now    func() time.Time
}

func (r *vaultRepository) FindAll(_ context.Context) ([]models.Vault, error) {
	var vaults []models.Vault
	err := r.access.read(func(st *state) error {
		vaults = make([]models.Vault, 0, len(st.vaults))
		for _, id := range sortedIDs(st.vaults) {
			vaults = append(vaults, st.vaults[id])
		}
		return nil
	})
	return vaults, err
}

func (r *vaultRepository) FindByID(_ context.Context, id int64) (*models.Vault, error) {
	var vault models.Vault
	err := r.access.read(func(st *state) error {
		v, ok := st.vaults[id]
		if !ok {
			return repository.ErrVaultNotFound
		}
		vault = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &vault, nil
}

// FindByIDForUpdate не требует отдельной блокировки: транзакции и так выполняются по одной.
func (r *vaultRepository) FindByIDForUpdate(ctx context.Context, id int64) (*models.Vault, error) {
	return r.FindByID(ctx, id)
}

func (r *vaultRepository) Create(_ context.Context, vault *models.Vault) error {
	return r.access.write(func(st *state) error {
		if vaultNameTaken(st, vault.Name, 0) {
			return repository.ErrDuplicateVaultName
		}
		st.vaultSeq++
		now := r.now()
		vault.ID = st.vaultSeq
		vault.CreatedAt = now
		vault.UpdatedAt = now
		st.vaults[vault.ID] = *vault
		return nil
	})
}

func (r *vaultRepository) Update(_ context.Context, vault *models.Vault) error {
	return r.access.write(func(st *state) error {
		existing, ok := st.vaults[vault.ID]
		if !ok {
			return repository.ErrVaultNotFound
		}
		if vaultNameTaken(st, vault.Name, vault.ID) {
			return repository.ErrDuplicateVaultName
		}
		vault.CreatedAt = existing.CreatedAt
		vault.UpdatedAt = r.now()
		st.vaults[vault.ID] = *vault
		return nil
	})
}

func (r *vaultRepository) Delete(_ context.Context, id int64) error {
	return r.access.write(func(st *state) error {
		if _, ok := st.vaults[id]; !ok {
			return repository.ErrVaultNotFound
		}
		for _, rec := range st.inventory {
			if rec.VaultID == id {
				return repository.ErrReferenced
			}
		}
		delete(st.vaults, id)
		return nil
	})
}

func (r *vaultRepository) ExistsByID(_ context.Context, id int64) (bool, error) {
	var found bool
	err := r.access.read(func(st *state) error {
		_, found = st.vaults[id]
		return nil
	})
	return found, err
}

func vaultNameTaken(st *state, name string, exceptID int64) bool {
	for id, v := range st.vaults {
		if id != exceptID && v.Name == name {
			return true
		}
	}
	return false
}

// inventoryRepository реализует repository.InventoryRepository в памяти.
type inventoryRepository struct {
	access access
	now    func() time.Time
}

func (r *inventoryRepository) FindAll(_ context.Context) ([]models.InventoryRecord, error) {
	return r.filter(func(models.InventoryRecord) bool { return true })
}

func (r *inventoryRepository) FindByID(_ context.Context, id int64) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.access.read(func(st *state) error {
		rec, ok := st.inventory[id]
		if !ok {
			return repository.ErrInventoryNotFound
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *inventoryRepository) FindByVaultID(_ context.Context, vaultID int64) ([]models.InventoryRecord, error) {
	records, err := r.filter(func(rec models.InventoryRecord) bool { return rec.VaultID == vaultID })
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ComicID < records[j].ComicID })
	return records, nil
}

func (r *inventoryRepository) FindByVaultIDAndComicID(
	_ context.Context,
	vaultID,
	comicID int64,
) (*models.InventoryRecord, error) {
	var record *models.InventoryRecord
	err := r.access.read(func(st *state) error {
		for _, rec := range st.inventory {
			if rec.VaultID == vaultID && rec.ComicID == comicID {
				found := rec
				record = &found
				return nil
			}
		}
		return repository.ErrInventoryNotFound
	})
	return record, err
}

func (r *inventoryRepository) Create(_ context.Context, record *models.InventoryRecord) error {
	return r.access.write(func(st *state) error {
		if _, ok := st.vaults[record.VaultID]; !ok {
			return repository.ErrVaultNotFound
		}
		if _, ok := st.comics[record.ComicID]; !ok {
			return repository.ErrComicNotFound
		}
		for _, rec := range st.inventory {
			if rec.VaultID == record.VaultID && rec.ComicID == record.ComicID {
				return repository.ErrDuplicateInventory
			}
		}
		st.inventorySeq++
		now := r.now()
		record.ID = st.inventorySeq
		record.CreatedAt = now
		record.UpdatedAt = now
		st.inventory[record.ID] = *record
		return nil
	})
}

func (r *inventoryRepository) UpdateQuantity(_ context.Context, record *models.InventoryRecord) error {
	return r.access.write(func(st *state) error {
		existing, ok := st.inventory[record.ID]
		if !ok {
			return repository.ErrInventoryNotFound
		}
		existing.Quantity = record.Quantity
		existing.UpdatedAt = r.now()
		st.inventory[record.ID] = existing
		record.UpdatedAt = existing.UpdatedAt
		return nil
	})
}

func (r *inventoryRepository) Delete(_ context.Context, id int64) error {
	return r.access.write(func(st *state) error {
		if _, ok := st.inventory[id]; !ok {
			return repository.ErrInventoryNotFound
		}
		delete(st.inventory, id)
		return nil
	})
}

func (r *inventoryRepository) ExistsByVaultID(_ context.Context, vaultID int64) (bool, error) {
	return r.any(func(rec models.InventoryRecord) bool { return rec.VaultID == vaultID })
}

func (r *inventoryRepository) ExistsByComicID(_ context.Context, comicID int64) (bool, error) {
	return r.any(func(rec models.InventoryRecord) bool { return rec.ComicID == comicID })
}

func (r *inventoryRepository) SumQuantityByVaultID(_ context.Context, vaultID int64) (int, error) {
	total := 0
	err := r.access.read(func(st *state) error {
		for _, rec := range st.inventory {
			if rec.VaultID == vaultID {
				total += rec.Quantity
			}
		}
		return nil
	})
	return total, err
}

func (r *inventoryRepository) filter(keep func(models.InventoryRecord) bool) ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	err := r.access.read(func(st *state) error {
		records = make([]models.InventoryRecord, 0)
		for _, id := range sortedIDs(st.inventory) {
			if rec := st.inventory[id]; keep(rec) {
				records = append(records, rec)
			}
		}
		return nil
	})
	return records, err
}

func (r *inventoryRepository) any(match func(models.InventoryRecord) bool) (bool, error) {
	found := false
	err := r.access.read(func(st *state) error {
		for _, rec := range st.inventory {
			if match(rec) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}
