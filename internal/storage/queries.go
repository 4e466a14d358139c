package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type CatalogRow struct {
	Nombre string
	Valor  int64
}

type RegistroActividad struct {
	ID        int64
	Nombre    string
	Actividad string
	Fecha     string
	Puntos    int64
}

type RegistroRecompensa struct {
	ID         int64
	Nombre     string
	Recompensa string
	Puntos     int64
	Fecha      string
}

const listActivities = `SELECT nombre, puntos FROM activities ORDER BY puntos, nombre`

func (q *Queries) ListActivities(ctx context.Context) ([]CatalogRow, error) {
	return q.listCatalog(ctx, listActivities)
}

const listRecompensas = `SELECT nombre, costo FROM recompensas ORDER BY costo, nombre`

func (q *Queries) ListRecompensas(ctx context.Context) ([]CatalogRow, error) {
	return q.listCatalog(ctx, listRecompensas)
}

func (q *Queries) listCatalog(ctx context.Context, query string) ([]CatalogRow, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CatalogRow
	for rows.Next() {
		var i CatalogRow
		if err := rows.Scan(&i.Nombre, &i.Valor); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertActivity = `INSERT INTO activities (nombre, puntos) VALUES (?, ?)
ON CONFLICT (nombre) DO UPDATE SET puntos = excluded.puntos`

func (q *Queries) UpsertActivity(ctx context.Context, nombre string, puntos int64) error {
	_, err := q.db.ExecContext(ctx, upsertActivity, nombre, puntos)
	return err
}

const upsertRecompensa = `INSERT INTO recompensas (nombre, costo) VALUES (?, ?)
ON CONFLICT (nombre) DO UPDATE SET costo = excluded.costo`

func (q *Queries) UpsertRecompensa(ctx context.Context, nombre string, costo int64) error {
	_, err := q.db.ExecContext(ctx, upsertRecompensa, nombre, costo)
	return err
}

const listRegistroActividades = `SELECT id, nombre, actividad, fecha, puntos
FROM registro_actividades
WHERE ? = '' OR nombre = ?
ORDER BY fecha DESC, id DESC`

func (q *Queries) ListRegistroActividades(ctx context.Context, nombre string) ([]RegistroActividad, error) {
	rows, err := q.db.QueryContext(ctx, listRegistroActividades, nombre, nombre)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RegistroActividad
	for rows.Next() {
		var i RegistroActividad
		if err := rows.Scan(&i.ID, &i.Nombre, &i.Actividad, &i.Fecha, &i.Puntos); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRegistroRecompensas = `SELECT id, nombre, recompensa, puntos, fecha
FROM registro_recompensas
WHERE ? = '' OR nombre = ?
ORDER BY fecha DESC, id DESC`

func (q *Queries) ListRegistroRecompensas(ctx context.Context, nombre string) ([]RegistroRecompensa, error) {
	rows, err := q.db.QueryContext(ctx, listRegistroRecompensas, nombre, nombre)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RegistroRecompensa
	for rows.Next() {
		var i RegistroRecompensa
		if err := rows.Scan(&i.ID, &i.Nombre, &i.Recompensa, &i.Puntos, &i.Fecha); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createRegistroActividad = `INSERT INTO registro_actividades (nombre, actividad, fecha, puntos)
VALUES (?, ?, ?, ?)
RETURNING id`

type CreateRegistroActividadParams struct {
	Nombre    string
	Actividad string
	Fecha     string
	Puntos    int64
}

func (q *Queries) CreateRegistroActividad(ctx context.Context, arg CreateRegistroActividadParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createRegistroActividad, arg.Nombre, arg.Actividad, arg.Fecha, arg.Puntos)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createRegistroRecompensa = `INSERT INTO registro_recompensas (nombre, recompensa, puntos, fecha)
VALUES (?, ?, ?, ?)
RETURNING id`

type CreateRegistroRecompensaParams struct {
	Nombre     string
	Recompensa string
	Puntos     int64
	Fecha      string
}

func (q *Queries) CreateRegistroRecompensa(ctx context.Context, arg CreateRegistroRecompensaParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createRegistroRecompensa, arg.Nombre, arg.Recompensa, arg.Puntos, arg.Fecha)
	var id int64
	err := row.Scan(&id)
	return id, err
}
