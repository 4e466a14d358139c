package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok {
			assert.NoError(t, err, "case %d", i)
		} else {
			assert.ErrorIs(t, err, ErrValidation, "case %d", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, 2, 29), d)
	assert.Equal(t, "2024-02-29", d.String())

	for _, bad := range []string{"", "2024-13-01", "01/02/2024", "2023-02-29"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestDateArithmeticCrossesMonthAndYear(t *testing.T) {
	assert.Equal(t, NewDate(2024, 1, 1), NewDate(2023, 12, 31).AddDays(1))
	assert.Equal(t, NewDate(2024, 2, 29), NewDate(2024, 3, 1).AddDays(-1))
	assert.True(t, NewDate(2024, 1, 1).Before(NewDate(2024, 1, 2)))
	assert.True(t, NewDate(2024, 1, 2).After(NewDate(2024, 1, 1)))
	assert.True(t, NewDate(2024, 1, 2).Equal(NewDate(2024, 1, 2)))
}

func TestDateOfIgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	late := time.Date(2024, 3, 10, 23, 30, 0, 0, loc)
	assert.Equal(t, NewDate(2024, 3, 10), DateOf(late))
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date `json:"d"`
	}{NewDate(2024, 1, 2)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-01-02"}`, string(b))

	var got struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-01-02 00:00:00"}`), &got))
	assert.Equal(t, NewDate(2024, 1, 2), got.D)

	require.Error(t, json.Unmarshal([]byte(`{"d":"yesterday"}`), &got))
}

func TestNewRoster(t *testing.T) {
	r, err := NewRoster([]string{" Ana ", "Bea"})
	require.NoError(t, err)
	assert.Equal(t, Roster{"Ana", "Bea"}, r)

	for _, names := range [][]string{{"Ana"}, {"Ana", "Bea", "Cid"}, {"Ana", ""}, {"Ana", "ana"}} {
		_, err := NewRoster(names)
		assert.ErrorIs(t, err, ErrConfiguration, "%v", names)
	}
}

func TestRosterResolve(t *testing.T) {
	r := DefaultRoster

	p, err := r.Resolve("josse")
	require.NoError(t, err)
	assert.Equal(t, Person("Josse"), p)

	_, err = r.Resolve("Carla")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "person", verr.Field)

	for _, all := range []string{"", "Ambos", "all"} {
		p, err := r.ResolveFilter(all)
		require.NoError(t, err)
		assert.Equal(t, Person(""), p)
	}
	p, err = r.ResolveFilter("Tomi")
	require.NoError(t, err)
	assert.Equal(t, Person("Tomi"), p)
	assert.True(t, r.Contains("Tomi"))
	assert.False(t, r.Contains("tomi"))
}

func TestCatalogValidateAndLookup(t *testing.T) {
	c := Catalog{"Run 5k": 10, "Swim": 15}
	require.NoError(t, c.Validate())

	v, err := c.Lookup("activity", "Swim")
	require.NoError(t, err)
	assert.EqualValues(t, 15, v)

	_, err = c.Lookup("activity", "Chess")
	assert.ErrorIs(t, err, ErrValidation)

	assert.ErrorIs(t, Catalog{"": 1}.Validate(), ErrConfiguration)
	assert.ErrorIs(t, Catalog{"Nap": -1}.Validate(), ErrConfiguration)

	assert.Equal(t, []string{"Run 5k", "Swim"}, c.Names())
	clone := c.Clone()
	clone["Swim"] = 99
	assert.EqualValues(t, 15, c["Swim"])
}

func TestRecordValidate(t *testing.T) {
	good := ActivityRecord{Person: "Josse", Activity: "Swim", Date: NewDate(2024, 1, 1), Points: 15}
	require.NoError(t, good.Validate())

	bads := []ActivityRecord{
		{Person: "", Activity: "Swim", Date: NewDate(2024, 1, 1), Points: 1},
		{Person: "Josse", Activity: " ", Date: NewDate(2024, 1, 1), Points: 1},
		{Person: "Josse", Activity: "Swim", Points: 1},
		{Person: "Josse", Activity: "Swim", Date: NewDate(2024, 1, 1), Points: -1},
	}
	for i, b := range bads {
		assert.ErrorIs(t, b.Validate(), ErrValidation, "case %d", i)
	}

	red := RedemptionRecord{Person: "Tomi", Reward: "Cinema", Date: NewDate(2024, 1, 1), Cost: 20}
	require.NoError(t, red.Validate())
	red.Cost = -5
	assert.ErrorIs(t, red.Validate(), ErrValidation)
}

func TestParsePoints(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"15", 15, true},
		{" 15 ", 15, true},
		{"+3", 3, true},
		{"15.0", 15, true},
		{"15,00", 15, true},
		{"0", 0, true},
		{"15.5", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
		{"١٥", 0, false},
	}
	for _, tc := range cases {
		got, err := ParsePoints(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.out, got, tc.in)
		} else {
			assert.ErrorIs(t, err, ErrDataIntegrity, tc.in)
		}
	}
}

func TestParsePointsRejectsNonASCIIDigits(t *testing.T) {
	_, err := ParsePoints("١٥")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a non-negative whole number")
}
