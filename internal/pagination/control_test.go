package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/pagination"
)

func TestNewClampsPageAndTotal(testingT *testing.T) {
	control := pagination.New(0, 7, 0)
	require.Equal(testingT, 1, control.Total())
	require.Equal(testingT, 1, control.Page())

	control = pagination.New(12, 30, 5)
	require.Equal(testingT, 12, control.Page())
}

func TestVisibleIsBlockAligned(testingT *testing.T) {
	testCases := []struct {
		name     string
		total    int
		page     int
		expected []int
	}{
		{name: "first block", total: 12, page: 3, expected: []int{1, 2, 3, 4, 5}},
		{name: "block boundary", total: 12, page: 6, expected: []int{6, 7, 8, 9, 10}},
		{name: "partial last block", total: 12, page: 11, expected: []int{11, 12}},
		{name: "fewer pages than window", total: 2, page: 1, expected: []int{1, 2}},
	}
	for _, testCase := range testCases {
		testCase := testCase
		testingT.Run(testCase.name, func(t *testing.T) {
			control := pagination.New(testCase.total, testCase.page, pagination.DefaultMaxVisible)
			require.Equal(t, testCase.expected, control.Visible())
		})
	}
}

func TestSelectNotifiesListenersWithoutMovingIndicator(testingT *testing.T) {
	control := pagination.New(4, 1, pagination.DefaultMaxVisible)
	var requested []int
	control.Subscribe(func(page int) { requested = append(requested, page) })
	control.Subscribe(nil)

	control.Select(3)
	control.Select(9)

	require.Equal(testingT, []int{3, 4}, requested)
	require.Equal(testingT, 1, control.Page())
}

func TestSetTotalKeepsPageInRange(testingT *testing.T) {
	control := pagination.New(10, 9, pagination.DefaultMaxVisible)
	control.SetTotal(3)
	require.Equal(testingT, 3, control.Page())
	control.SetPage(-1)
	require.Equal(testingT, 1, control.Page())
}

func TestSnapshotReportsNavigation(testingT *testing.T) {
	control := pagination.New(3, 2, pagination.DefaultMaxVisible)
	state := control.Snapshot()
	require.Equal(testingT, pagination.State{
		Total:       3,
		Page:        2,
		Visible:     []int{1, 2, 3},
		HasPrevious: true,
		HasNext:     true,
		Previous:    1,
		Next:        3,
	}, state)

	control.SetPage(3)
	state = control.Snapshot()
	require.False(testingT, state.HasNext)
	require.Equal(testingT, 3, state.Next)
}

func TestPreviousAndNextRequestAdjacentPages(testingT *testing.T) {
	control := pagination.New(3, 1, pagination.DefaultMaxVisible)
	var requested []int
	control.Subscribe(func(page int) { requested = append(requested, page) })

	require.False(testingT, control.HasPrevious())
	require.True(testingT, control.HasNext())
	control.Previous()
	control.Next()
	require.Equal(testingT, []int{2}, requested)

	control.SetPage(3)
	require.True(testingT, control.HasPrevious())
	require.False(testingT, control.HasNext())
	control.Next()
	control.Previous()
	require.Equal(testingT, []int{2, 2}, requested)
}
