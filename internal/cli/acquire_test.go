package cli

import (
	"testing"
	"time"

	"docFetcher/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemIndex(t *testing.T) {
	monday := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.Local)
	p := config.Portal{ItemSelector: ".lesson", BaseDate: monday}

	testCases := []struct {
		name     string
		item     int
		portal   config.Portal
		today    time.Time
		expected int
	}{
		{name: "explicit", item: 3, portal: p, today: monday, expected: 3},
		{name: "base day", item: -1, portal: p, today: monday, expected: 0},
		{name: "next monday", item: -1, portal: p, today: monday.AddDate(0, 0, 7), expected: 5},
		{name: "no base date", item: -1, portal: config.Portal{ItemSelector: ".lesson"}, today: monday, expected: -1},
		{name: "no selector", item: -1, portal: config.Portal{BaseDate: monday}, today: monday, expected: -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := &acquireOptions{item: tc.item}
			assert.Equal(t, tc.expected, opts.itemIndex(tc.portal, tc.today))
		})
	}
}

func TestRequestDefaults(t *testing.T) {
	cfg := &config.Cfg{
		Portal:  config.Portal{SourceParam: "lesson"},
		Acquire: config.Acquire{DestinationRoot: "/data"},
	}

	opts := &acquireOptions{tags: []string{"5", "math"}}
	req := opts.request(cfg, "https://school.example/detail?lesson=77")
	assert.Equal(t, "77", req.SourceID)
	assert.Equal(t, "/data", req.DestinationRoot)

	opts = &acquireOptions{tags: []string{"5"}, sourceID: "given", root: "/tmp/out"}
	req = opts.request(cfg, "https://school.example/detail?lesson=77")
	assert.Equal(t, "given", req.SourceID)
	assert.Equal(t, "/tmp/out", req.DestinationRoot)
}

func TestRootCmdRequiresTag(t *testing.T) {
	app := New(&config.Cfg{}, nil)
	root := app.RootCmd()
	root.SetArgs([]string{"acquire"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tag")
}

func TestHistoryWithoutDatabase(t *testing.T) {
	app := New(&config.Cfg{}, nil)
	root := app.RootCmd()
	root.SetArgs([]string{"history"})

	err := root.Execute()
	assert.ErrorContains(t, err, "DB_HOST")
}

func TestResolveDetailURL(t *testing.T) {
	p := config.Portal{
		DetailURL: "https://school.example/lessons?view=card",
		Filters:   map[string]string{"class": "5", "subject": "math"},
	}

	testCases := []struct {
		name     string
		opts     acquireOptions
		portal   config.Portal
		expected string
	}{
		{name: "config filters", portal: p, expected: "https://school.example/lessons?class=5&subject=math&view=card"},
		{
			name:     "flag overrides config",
			opts:     acquireOptions{filters: map[string]string{"subject": "physics", "week": "12"}},
			portal:   p,
			expected: "https://school.example/lessons?class=5&subject=physics&view=card&week=12",
		},
		{
			name:     "explicit url",
			opts:     acquireOptions{detailURL: "https://school.example/other", filters: map[string]string{"class": "7"}},
			portal:   config.Portal{},
			expected: "https://school.example/other?class=7",
		},
		{name: "nothing to open", portal: config.Portal{}, expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := tc.opts.resolveDetailURL(tc.portal)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestResolveDetailURLRejectsRelative(t *testing.T) {
	opts := &acquireOptions{detailURL: "/lessons"}
	_, err := opts.resolveDetailURL(config.Portal{})
	assert.Error(t, err)
}
