package filters

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

// Wednesday
var now = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func lead(id, client, contact, location, status string, created time.Time) models.Lead {
	return models.Lead{
		ID:            id,
		ClientName:    client,
		ContactPerson: contact,
		Location:      location,
		Status:        models.ParseLeadStatus(status),
		CreatedAt:     created,
	}
}

func sampleLeads() []models.Lead {
	return []models.Lead{
		lead("1", "Acme Outdoor", "Ravi", "Sector 4", models.StatusSuspect, now.Add(-time.Hour)),
		lead("2", "Bharat Media", "Anita", "Sector 9", models.StatusProspect, now.AddDate(0, 0, -1)),
		lead("3", "Ganga Ads", "ravi kumar", "Jhusi", models.StatusSuspect, now.AddDate(0, 0, -2)),
		lead("4", "Triveni Prints", "Meena", "sector 4", "vip", now.AddDate(0, 0, -9)),
		lead("5", "Kumbh Signs", "Arjun", "Arail", models.StatusNegotiation, now),
	}
}

func ids(leads []models.Lead) []string {
	out := make([]string, 0, len(leads))
	for _, l := range leads {
		out = append(out, l.ID)
	}
	return out
}

func TestLeadsFacets(t *testing.T) {
	leads := sampleLeads()

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(Leads(leads, LeadFilter{}, now)))
	assert.Equal(t, []string{"1", "3"}, ids(Leads(leads, LeadFilter{Status: models.StatusSuspect}, now)))
	assert.Equal(t, []string{"4"}, ids(Leads(leads, LeadFilter{Status: "vip"}, now)))
	assert.Equal(t, []string{"1", "3"}, ids(Leads(leads, LeadFilter{Search: "RAVI"}, now)))
	assert.Equal(t, []string{"2"}, ids(Leads(leads, LeadFilter{Search: "bharat"}, now)))
	assert.Equal(t, []string{"1", "4"}, ids(Leads(leads, LeadFilter{Location: "Sector 4"}, now)))
	assert.Equal(t, []string{"1", "5"}, ids(Leads(leads, LeadFilter{Date: DateFilter{Bucket: BucketToday}}, now)))
	assert.Equal(t, []string{"2"}, ids(Leads(leads, LeadFilter{Date: DateFilter{Bucket: BucketYesterday}}, now)))
	assert.Equal(t, []string{"1", "2", "3", "5"}, ids(Leads(leads, LeadFilter{Date: DateFilter{Bucket: BucketThisWeek}}, now)))
}

func TestLeadsMonotonicNarrowing(t *testing.T) {
	leads := sampleLeads()
	day := now.AddDate(0, 0, -2)
	from := now.AddDate(0, 0, -10)
	to := now.AddDate(0, 0, -1)

	facets := []func(*LeadFilter){
		func(f *LeadFilter) { f.Status = models.StatusSuspect },
		func(f *LeadFilter) { f.Search = "ravi" },
		func(f *LeadFilter) { f.Location = "sector" },
		func(f *LeadFilter) { f.Date = DateFilter{Bucket: BucketThisWeek} },
		func(f *LeadFilter) { f.Date = DateFilter{Bucket: BucketExact, Day: &day} },
		func(f *LeadFilter) { f.Date = DateFilter{Bucket: BucketCustom, From: &from, To: &to} },
	}

	// every subset of facets, then one more facet on top
	for mask := 0; mask < 1<<len(facets); mask++ {
		var base LeadFilter
		for i, apply := range facets {
			if mask&(1<<i) != 0 {
				apply(&base)
			}
		}
		before := Leads(leads, base, now)
		for i, apply := range facets {
			if mask&(1<<i) != 0 {
				continue
			}
			narrowed := base
			apply(&narrowed)
			// date facets replace each other, so only compare when the date was unset
			if i >= 3 && base.Date.Active() {
				continue
			}
			after := Leads(leads, narrowed, now)
			assert.LessOrEqual(t, len(after), len(before), "mask %b + facet %d", mask, i)
			assert.Subset(t, ids(before), ids(after))
		}
	}
}

func TestDateBucketIdempotent(t *testing.T) {
	leads := sampleLeads()
	for _, b := range []DateBucket{BucketToday, BucketYesterday, BucketThisWeek} {
		f := LeadFilter{Date: DateFilter{Bucket: b}}
		once := Leads(leads, f, now)
		twice := Leads(once, f, now)
		assert.Equal(t, ids(once), ids(twice), string(b))
	}
}

func TestCustomRangeNeedsBothBounds(t *testing.T) {
	leads := sampleLeads()
	from := now.AddDate(0, 0, -1)

	onlyFrom := LeadFilter{Date: DateFilter{Bucket: BucketCustom, From: &from}}
	assert.Len(t, Leads(leads, onlyFrom, now), len(leads))

	onlyTo := LeadFilter{Date: DateFilter{Bucket: BucketCustom, To: &from}}
	assert.Len(t, Leads(leads, onlyTo, now), len(leads))

	to := now
	both := LeadFilter{Date: DateFilter{Bucket: BucketCustom, From: &from, To: &to}}
	assert.Equal(t, []string{"1", "2", "5"}, ids(Leads(leads, both, now)))
}

func TestDateFilterUsesLocation(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 20:00 UTC on the 14th is 01:30 IST on the 15th
	created := time.Date(2025, 1, 14, 20, 0, 0, 0, time.UTC)
	f := DateFilter{Bucket: BucketToday, Location: ist}
	assert.True(t, f.Match(created, now))
	assert.False(t, DateFilter{Bucket: BucketToday}.Match(created, now))
}

func TestStartOfWeekIsMonday(t *testing.T) {
	sunday := time.Date(2025, 1, 19, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC), StartOfWeek(sunday))

	monday := time.Date(2025, 1, 13, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC), StartOfWeek(monday))
}

func TestParseDateBucket(t *testing.T) {
	b, err := ParseDateBucket("this_week")
	require.NoError(t, err)
	assert.Equal(t, BucketThisWeek, b)

	_, err = ParseDateBucket("last_year")
	assert.Error(t, err)
}

func TestSortLeads(t *testing.T) {
	leads := sampleLeads()

	SortLeads(leads, SortClientName, false)
	assert.Equal(t, []string{"1", "2", "3", "5", "4"}, ids(leads))

	SortLeads(leads, SortStatus, false)
	assert.Equal(t, []string{"1", "3", "2", "5", "4"}, ids(leads))

	SortLeads(leads, SortCreatedAt, true)
	assert.Equal(t, []string{"5", "1", "2", "3", "4"}, ids(leads))
}
