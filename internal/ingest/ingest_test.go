package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-scout-metrics/internal/model"
)

const sample = `id,Player,Squad,Comp,Age,Pos,Position_2,Min,Market_Value,pressures,tackles,pass_pct
p1,Ana Silva,Benfica,Primeira Liga,23-120,"DF,MF",,"2,430",€12m,410,55,88.5%
p2,Joe Bloggs,Hull,Championship,29,FW,,1800,£750k,NA,12,-

p3,No Stats,Hull,Championship,31,MF,DM,950,,,,
`

func TestLoad(t *testing.T) {
	tbl, rep, err := Load(strings.NewReader(sample))
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, 3, rep.Rows)
	assert.Equal(t, []string{"pressures", "tackles", "pass_pct"}, rep.StatColumns)
	assert.Equal(t, []string{model.ColSeason}, rep.Missing)
	assert.Equal(t, 5, rep.UnknownCells)

	p1 := tbl.Rows[0]
	assert.Equal(t, "p1", p1.ID)
	assert.Equal(t, "Ana Silva", p1.Name)
	assert.Equal(t, "Benfica", p1.Team)
	assert.Equal(t, "Primeira Liga", p1.League)
	assert.InDelta(t, 23+120.0/365, p1.Age, 1e-9)
	assert.Equal(t, "DF", p1.Position1)
	assert.Equal(t, "MF", p1.Position2)
	assert.Equal(t, 2430.0, p1.Minutes)
	assert.Equal(t, "€12m", p1.Value)
	assert.Equal(t, 88.5, p1.Stats["pass_pct"])

	p2 := tbl.Rows[1]
	assert.False(t, model.IsKnown(p2.Stats["pressures"]))
	assert.False(t, model.IsKnown(p2.Stats["pass_pct"]))
	assert.Equal(t, 12.0, p2.Stats["tackles"])

	p3 := tbl.Rows[2]
	assert.Equal(t, "DM", p3.Position2)
	assert.Equal(t, "", p3.Value)
	assert.True(t, tbl.HasColumn("tackles"))
	assert.False(t, model.IsKnown(p3.Stats["tackles"]))

	assert.True(t, tbl.HasIdentity(model.ColLeague))
	assert.False(t, tbl.HasIdentity(model.ColSeason))
}

func TestLoadMissingIdentityIsRecorded(t *testing.T) {
	tbl, rep, err := Load(strings.NewReader("Name,Team,Minutes,goals\nA,X,900,3\n"))
	require.NoError(t, err)
	assert.Contains(t, rep.Missing, model.ColLeague)
	assert.False(t, tbl.HasIdentity(model.ColLeague))
	assert.Equal(t, "1", tbl.Rows[0].ID)
}

func TestLoadErrors(t *testing.T) {
	_, _, err := Load(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)

	_, _, err = Load(strings.NewReader("Team,Squad\nA,B\n"))
	assert.ErrorContains(t, err, "duplicate column")

	_, _, err = LoadFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	tbl, _, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 1234.5, ParseNumber(" 1,234.5 "))
	assert.Equal(t, 45.0, ParseNumber("45%"))
	for _, s := range []string{"", "-", "NA", "n/a", "NaN", "abc"} {
		assert.False(t, model.IsKnown(ParseNumber(s)), s)
	}
	assert.Equal(t, 27.0, ParseAge("27"))
	assert.False(t, model.IsKnown(ParseAge("")))
}

func TestLoadKeepsEverySeasonOfAPlayer(t *testing.T) {
	src := "ID,Season,Name,Team,League,Minutes,tackles\n" +
		"p1,2022-23,Ana,Benfica,Primeira Liga,2000,10\n" +
		"p1,2023-24,Ana,Benfica,Primeira Liga,2100,30\n"
	tbl, _, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "2022-23", tbl.Rows[0].Season)
	assert.Equal(t, 30.0, tbl.Rows[1].Stats["tackles"])
}

func TestLoadRejectsDuplicatePlayerSeason(t *testing.T) {
	src := "ID,Season,Name,tackles\n" +
		"p1,2023-24,Ana,10\n" +
		"p2,2023-24,Bo,4\n" +
		"p1,2023-24,Ana,30\n"
	_, _, err := Load(strings.NewReader(src))
	require.ErrorIs(t, err, ErrDuplicatePlayer)
	assert.ErrorContains(t, err, "line 4")
	assert.ErrorContains(t, err, "line 2")
}
