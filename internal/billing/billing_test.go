package billing

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/cleanteam/internal/models"
	"github.com/xuri/excelize/v2"
)

var start = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func completedTask(id, date, apartment string, staff ...string) *models.Task {
	end := start.Add(90 * time.Minute)
	began := start
	return &models.Task{
		ID:          id,
		Date:        date,
		Apartment:   apartment,
		Status:      models.StatusCompleted,
		AssignedTo:  models.NewStaffIDs(staff...),
		StartedAt:   &began,
		CompletedAt: &end,
	}
}

func fixed(rate float64) models.BillingProfile {
	return models.BillingProfile{Mode: models.BillingFixed, FixedRate: rate}
}

func hourly(rate float64) models.BillingProfile {
	return models.BillingProfile{Mode: models.BillingHourly, HourlyRate: rate}
}

func TestComputeAmount_Split(t *testing.T) {
	task := completedTask("t1", "2024-06-01", "Loft A", "a", "b")
	profiles := Profiles{"a": fixed(50), "b": fixed(30)}

	total := ComputeAmount(task, profiles, "")
	require.NotNil(t, total)
	assert.InDelta(t, 40, *total, 1e-9)

	share := ComputeAmount(task, profiles, "b")
	require.NotNil(t, share)
	assert.InDelta(t, 15, *share, 1e-9)
}

func TestComputeAmount_NotBillable(t *testing.T) {
	profiles := Profiles{"a": fixed(50)}

	t.Run("unassigned", func(t *testing.T) {
		assert.Nil(t, ComputeAmount(completedTask("t1", "2024-06-01", "Loft A"), profiles, ""))
	})

	t.Run("target not assigned", func(t *testing.T) {
		assert.Nil(t, ComputeAmount(completedTask("t1", "2024-06-01", "Loft A", "a"), profiles, "z"))
	})

	t.Run("not completed", func(t *testing.T) {
		task := completedTask("t1", "2024-06-01", "Loft A", "a")
		task.Status = models.StatusInProgress
		assert.Nil(t, ComputeAmount(task, profiles, ""))
	})

	t.Run("nil task", func(t *testing.T) {
		assert.Nil(t, ComputeAmount(nil, profiles, ""))
	})
}

func TestComputeAmount_Hourly(t *testing.T) {
	t.Run("duration times rate", func(t *testing.T) {
		task := completedTask("t1", "2024-06-01", "Loft A", "a")
		amount := ComputeAmount(task, Profiles{"a": hourly(20)}, "")
		require.NotNil(t, amount)
		assert.InDelta(t, 30, *amount, 1e-9)
	})

	t.Run("missing completedAt contributes zero", func(t *testing.T) {
		task := completedTask("t1", "2024-06-01", "Loft A", "a")
		task.CompletedAt = nil
		amount := ComputeAmount(task, Profiles{"a": hourly(20)}, "")
		require.NotNil(t, amount)
		assert.Equal(t, 0.0, *amount)
	})

	t.Run("negative duration clamps to zero", func(t *testing.T) {
		task := completedTask("t1", "2024-06-01", "Loft A", "a")
		before := start.Add(-time.Hour)
		task.CompletedAt = &before
		amount := ComputeAmount(task, Profiles{"a": hourly(20)}, "")
		require.NotNil(t, amount)
		assert.Equal(t, 0.0, *amount)
	})

	t.Run("only the active mode rate is used", func(t *testing.T) {
		task := completedTask("t1", "2024-06-01", "Loft A", "a", "b")
		profiles := Profiles{
			"a": {Mode: models.BillingHourly, HourlyRate: 20, FixedRate: 1000},
			"b": {FixedRate: 10, HourlyRate: 1000},
		}
		amount := ComputeAmount(task, profiles, "")
		require.NotNil(t, amount)
		assert.InDelta(t, 30.0/2+10.0/2, *amount, 1e-9)
	})

	t.Run("missing profile contributes nothing but still splits", func(t *testing.T) {
		task := completedTask("t1", "2024-06-01", "Loft A", "a", "ghost")
		amount := ComputeAmount(task, Profiles{"a": fixed(50)}, "")
		require.NotNil(t, amount)
		assert.InDelta(t, 25, *amount, 1e-9)
	})
}

func TestFilter(t *testing.T) {
	task := completedTask("t1", "2024-06-10", "Loft A", "a")

	assert.True(t, Filter{}.Matches(task))
	assert.True(t, Filter{From: "2024-06-10", To: "2024-06-10"}.Matches(task), "bounds are inclusive")
	assert.False(t, Filter{From: "2024-06-11"}.Matches(task))
	assert.False(t, Filter{To: "2024-06-09"}.Matches(task))
	assert.True(t, Filter{Property: "Loft A"}.Matches(task))
	assert.False(t, Filter{Property: "Loft B"}.Matches(task))
	assert.True(t, Filter{StaffID: "a"}.Matches(task))
	assert.False(t, Filter{StaffID: "b"}.Matches(task))

	pending := completedTask("t2", "2024-06-10", "Loft A", "a")
	pending.Status = models.StatusPending
	assert.False(t, Filter{}.Matches(pending))
}

func TestFilter_Validate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	assert.NoError(t, Filter{From: "2024-06-01", To: "2024-06-30"}.Validate())
	assert.ErrorIs(t, Filter{From: "06/01/2024"}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, Filter{From: "2024-07-01", To: "2024-06-30"}.Validate(), ErrInvalidFilter)
}

func reportFixture() Report {
	tasks := []*models.Task{
		completedTask("t2", "2024-06-02", `Haus "Am See"`, "a", "b"),
		completedTask("t1", "2024-06-01", "Loft A", "a"),
		completedTask("t3", "2024-06-03", "Loft A"),
	}
	tasks[2].StartedAt = nil

	staff := []*models.StaffMember{
		{ID: "a", Name: "Anna", Billing: fixed(1000)},
		{ID: "b", Name: "", Billing: fixed(469)},
	}
	return Build(tasks, staff, Filter{})
}

func TestBuild(t *testing.T) {
	report := reportFixture()

	require.Len(t, report.Rows, 3)
	assert.Equal(t, []string{"t1", "t2", "t3"}, []string{report.Rows[0].TaskID, report.Rows[1].TaskID, report.Rows[2].TaskID})
	assert.Equal(t, []string{"Anna", "b"}, report.Rows[1].StaffNames, "unnamed staff fall back to their id")
	assert.Nil(t, report.Rows[2].Amount)
	assert.Nil(t, report.Rows[2].DurationMinutes)
	require.NotNil(t, report.Rows[0].DurationMinutes)
	assert.Equal(t, 90, *report.Rows[0].DurationMinutes)
	assert.InDelta(t, 1000+734.5, report.Total, 1e-9)
}

func TestBuild_StaffFilter(t *testing.T) {
	tasks := []*models.Task{
		completedTask("t1", "2024-06-01", "Loft A", "a", "b"),
		completedTask("t2", "2024-06-02", "Loft A", "a"),
	}
	staff := []*models.StaffMember{
		{ID: "a", Billing: fixed(50)},
		{ID: "b", Billing: fixed(30)},
	}

	report := Build(tasks, staff, Filter{StaffID: "b"})
	require.Len(t, report.Rows, 1)
	assert.InDelta(t, 15, report.Total, 1e-9)
}

func TestFormatting(t *testing.T) {
	amount := 1234.5
	small := 15.0
	minutes := 125

	assert.Equal(t, "1.234,50\u00a0€", FormatAmount(&amount))
	assert.Equal(t, "15,00\u00a0€", FormatAmount(&small))
	assert.Equal(t, "-", FormatAmount(nil))
	assert.Equal(t, "2h 5m", FormatDuration(&minutes))
	assert.Equal(t, "-", FormatDuration(nil))
}

func TestCSV(t *testing.T) {
	data, err := CSV(reportFixture())
	require.NoError(t, err)

	lines := strings.Split(string(data), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `"Datum";"Unterkunft";"Mitarbeiter";"Dauer";"Betrag"`, lines[0])
	assert.Equal(t, `"2024-06-01";"Loft A";"Anna";"1h 30m";"1.000,00`+"\u00a0"+`€"`, lines[1])
	assert.Equal(t, `"2024-06-02";"Haus ""Am See""";"Anna, b";"1h 30m";"734,50`+"\u00a0"+`€"`, lines[2])
	assert.Equal(t, `"2024-06-03";"Loft A";"-";"-";"-"`, lines[3])
	assert.False(t, strings.HasSuffix(string(data), "\n"))
}

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, reportFixture()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Datum", rows[0][0])
	assert.Equal(t, "Loft A", rows[1][1])
	assert.Equal(t, "Summe", rows[4][3])

	raw, err := f.GetCellValue(sheetName, "E5", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1734.5", raw)
}
