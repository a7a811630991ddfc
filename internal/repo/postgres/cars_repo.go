package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/fleetdev/carhub/internal/domain/car"
	"github.com/fleetdev/carhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CarsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCarsRepo(pool *pgxpool.Pool, prom *observability.Prom) *CarsRepo {
	return &CarsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *CarsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Create runs the duplicate-plate check and the insert in one transaction.
// The unique index on placa stays the authoritative guard: two concurrent
// creates racing past the check still cannot both commit, the loser gets a
// unique violation which maps to the same conflict error.
func (r *CarsRepo) Create(ctx context.Context, req car.CreateCarRequest) (car.Car, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return car.Car{}, err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool

	err = r.observe("cars.create.duplicate_check", func() error {
		return tx.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM carros WHERE placa = $1
		)`, req.Placa).Scan(&exists)
	})

	if err != nil {
		return car.Car{}, err
	}

	if exists {
		return car.Car{}, car.ErrPlacaTaken
	}

	now := time.Now().UTC()

	c := car.Car{
		ID:        uuid.NewString(),
		Placa:     req.Placa,
		Marca:     req.Marca,
		Modelo:    req.Modelo,
		Valor:     req.Valor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = r.observe("cars.create.insert", func() error {
		_, execErr := tx.Exec(ctx,
			`INSERT INTO carros (id, placa, marca, modelo, valor, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			c.ID, c.Placa, c.Marca, c.Modelo, c.Valor, c.CreatedAt, c.UpdatedAt,
		)
		return execErr
	})

	if err != nil {
		return car.Car{}, classifyCarErr(err)
	}

	err = tx.Commit(ctx)

	if err != nil {
		return car.Car{}, classifyCarErr(err)
	}

	return c, nil
}

func (r *CarsRepo) List(ctx context.Context) ([]car.Car, error) {
	var output []car.Car

	err := r.observe("cars.list", func() error {
		rows, queryErr := r.pool.Query(ctx,
			`SELECT id, placa, marca, modelo, valor, created_at, updated_at
			FROM carros
			ORDER BY created_at ASC, id ASC`)

		if queryErr != nil {
			return queryErr
		}

		defer rows.Close()

		output = make([]car.Car, 0)

		for rows.Next() {
			var c car.Car

			scanErr := rows.Scan(&c.ID, &c.Placa, &c.Marca, &c.Modelo, &c.Valor, &c.CreatedAt, &c.UpdatedAt)

			if scanErr != nil {
				return scanErr
			}

			output = append(output, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *CarsRepo) GetByID(ctx context.Context, id string) (car.Car, error) {
	var c car.Car

	err := r.observe("cars.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, placa, marca, modelo, valor, created_at, updated_at
			FROM carros WHERE id = $1`, id).
			Scan(&c.ID, &c.Placa, &c.Marca, &c.Modelo, &c.Valor, &c.CreatedAt, &c.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return car.Car{}, car.ErrNotFound
		}

		return car.Car{}, err
	}

	return c, nil
}

// Update merges only the provided fields; COALESCE keeps the stored value for
// absent ones. A plate change that collides hits the unique index and maps to
// the same conflict as create.
func (r *CarsRepo) Update(ctx context.Context, id string, req car.UpdateCarRequest) (car.Car, error) {
	var c car.Car

	err := r.observe("cars.update", func() error {
		return r.pool.QueryRow(
			ctx,
			`UPDATE carros
				SET placa = COALESCE($2, placa),
					marca = COALESCE($3, marca),
					modelo = COALESCE($4, modelo),
					valor = COALESCE($5, valor),
					updated_at = NOW()
			WHERE id = $1
			RETURNING id, placa, marca, modelo, valor, created_at, updated_at`,
			id,
			req.Placa,
			req.Marca,
			req.Modelo,
			req.Valor,
		).Scan(
			&c.ID,
			&c.Placa,
			&c.Marca,
			&c.Modelo,
			&c.Valor,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return car.Car{}, car.ErrNotFound
		}

		return car.Car{}, classifyCarErr(err)
	}

	return c, nil
}

func (r *CarsRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("cars.delete", func() error {
		var execErr error
		tag, execErr = r.pool.Exec(ctx, `DELETE FROM carros WHERE id = $1`, id)
		return execErr
	})

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if tag.RowsAffected() == 0 {
		return car.ErrNotFound
	}

	return nil
}

func classifyCarErr(err error) error {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return car.ErrPlacaTaken
	}

	return err
}
