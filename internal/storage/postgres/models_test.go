package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puntos/internal/core"
)

func TestActivityModelMapping(t *testing.T) {
	rec := core.ActivityRecord{Person: "Josse", Activity: "Swim", Date: core.NewDate(2024, 1, 2), Points: 15}
	m := activityToModel(rec)
	assert.Equal(t, "registro_actividades", m.TableName())
	assert.Equal(t, "Josse", m.Nombre)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), m.Fecha)

	m.ID = 42
	back, err := activityFromModel(m)
	require.NoError(t, err)
	rec.ID = "42"
	assert.Equal(t, rec, back)
}

func TestRedemptionModelStoresCostInPuntos(t *testing.T) {
	rec := core.RedemptionRecord{Person: "Tomi", Reward: "Cinema", Date: core.NewDate(2024, 1, 3), Cost: 20}
	m := redemptionToModel(rec)
	assert.Equal(t, "registro_recompensas", m.TableName())
	assert.EqualValues(t, 20, m.Puntos)

	m.ID = 7
	back, err := redemptionFromModel(m)
	require.NoError(t, err)
	assert.EqualValues(t, 20, back.Cost)
	assert.Equal(t, "7", back.ID)
}

func TestModelMappingKeepsCalendarDayFromDriverLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	back, err := activityFromModel(registroActividadModel{
		ID: 1, Nombre: "Josse", Actividad: "Swim", Fecha: time.Date(2024, 1, 2, 0, 0, 0, 0, loc), Puntos: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2024, 1, 2), back.Date)
}

func TestModelMappingRejectsNegativeValues(t *testing.T) {
	_, err := activityFromModel(registroActividadModel{ID: 1, Puntos: -1})
	assert.ErrorIs(t, err, core.ErrDataIntegrity)

	_, err = redemptionFromModel(registroRecompensaModel{ID: 1, Puntos: -1})
	assert.ErrorIs(t, err, core.ErrDataIntegrity)
}

func TestCatalogTableNamesAndMigrations(t *testing.T) {
	assert.Equal(t, "activities", activityModel{}.TableName())
	assert.Equal(t, "recompensas", recompensaModel{}.TableName())

	names, err := migrationNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql"}, names)

	_, err = checkCatalog("activities", core.Catalog{})
	assert.ErrorIs(t, err, core.ErrConfiguration)
}
