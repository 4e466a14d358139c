package postgres

import (
	"strconv"
	"time"

	"puntos/internal/core"
)

type activityModel struct {
	Nombre string `gorm:"column:nombre;primaryKey"`
	Puntos int64  `gorm:"column:puntos"`
}

func (activityModel) TableName() string { return "activities" }

type recompensaModel struct {
	Nombre string `gorm:"column:nombre;primaryKey"`
	Costo  int64  `gorm:"column:costo"`
}

func (recompensaModel) TableName() string { return "recompensas" }

type registroActividadModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Nombre    string    `gorm:"column:nombre"`
	Actividad string    `gorm:"column:actividad"`
	Fecha     time.Time `gorm:"column:fecha;type:date"`
	Puntos    int64     `gorm:"column:puntos"`
}

func (registroActividadModel) TableName() string { return "registro_actividades" }

// registroRecompensaModel stores the reward cost in the puntos column.
type registroRecompensaModel struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Nombre     string    `gorm:"column:nombre"`
	Recompensa string    `gorm:"column:recompensa"`
	Puntos     int64     `gorm:"column:puntos"`
	Fecha      time.Time `gorm:"column:fecha;type:date"`
}

func (registroRecompensaModel) TableName() string { return "registro_recompensas" }

func activityFromModel(m registroActividadModel) (core.ActivityRecord, error) {
	if m.Puntos < 0 {
		return core.ActivityRecord{}, core.DataIntegrityError("registro_actividades id %d has negative puntos %d", m.ID, m.Puntos)
	}
	return core.ActivityRecord{
		ID:       strconv.FormatInt(m.ID, 10),
		Person:   core.Person(m.Nombre),
		Activity: m.Actividad,
		Date:     core.DateOf(m.Fecha),
		Points:   m.Puntos,
	}, nil
}

func activityToModel(r core.ActivityRecord) registroActividadModel {
	return registroActividadModel{
		Nombre:    string(r.Person),
		Actividad: r.Activity,
		Fecha:     r.Date.Time,
		Puntos:    r.Points,
	}
}

func redemptionFromModel(m registroRecompensaModel) (core.RedemptionRecord, error) {
	if m.Puntos < 0 {
		return core.RedemptionRecord{}, core.DataIntegrityError("registro_recompensas id %d has negative puntos %d", m.ID, m.Puntos)
	}
	return core.RedemptionRecord{
		ID:     strconv.FormatInt(m.ID, 10),
		Person: core.Person(m.Nombre),
		Reward: m.Recompensa,
		Date:   core.DateOf(m.Fecha),
		Cost:   m.Puntos,
	}, nil
}

func redemptionToModel(r core.RedemptionRecord) registroRecompensaModel {
	return registroRecompensaModel{
		Nombre:     string(r.Person),
		Recompensa: r.Reward,
		Puntos:     r.Cost,
		Fecha:      r.Date.Time,
	}
}
