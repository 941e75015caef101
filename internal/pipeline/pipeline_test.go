package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/podcast-kpi/internal/kpi"
	"github.com/sells-group/podcast-kpi/internal/model"
	"github.com/sells-group/podcast-kpi/internal/store"
)

func stubExtractors() (*mockGuestExtractor, *mockTopicClassifier) {
	g := &mockGuestExtractor{}
	g.On("Extract", mock.Anything, "Dr. Andrew Huberman on sleep").Return([]string{"Dr. Andrew Huberman"}).Once()
	g.On("Extract", mock.Anything, "andrew  huberman and Jane Doe on money").Return([]string{"Dr. andrew huberman", "Jane Doe"}).Once()
	g.On("Extract", mock.Anything, "").Return([]string{}).Once()

	tc := &mockTopicClassifier{}
	tc.On("Classify", mock.Anything, "Sleep Better").Return(model.TopicHealth).Once()
	tc.On("Classify", mock.Anything, "Money Habits").Return(model.TopicFinance).Once()
	tc.On("Classify", mock.Anything, "Solo Rant").Return(model.TopicOther).Once()
	return g, tc
}

func TestRun_EndToEnd(t *testing.T) {
	st := store.NewMemory()
	g, tc := stubExtractors()
	p := newTestPipeline(t, st, g, tc, false)

	res, err := p.Run(context.Background(), rawDataset())
	require.NoError(t, err)

	g.AssertExpectations(t)
	tc.AssertExpectations(t)

	require.Len(t, res.Topics, 3)
	assert.Equal(t, model.TopicHealth, res.Topics[0].Topic)
	assert.Equal(t, 1, res.Topics[0].Rank)
	assert.InDelta(t, 1.0, res.Topics[0].WeightedScore, 1e-9)

	require.Len(t, res.Guests, 2)
	assert.Equal(t, "Dr. Andrew Huberman", res.Guests[0].Guest)
	assert.Equal(t, 2, res.Guests[0].Appearances)
	assert.Equal(t, "Jane Doe", res.Guests[1].Guest)

	for _, key := range []string{KeyGuests, KeyTopics, KeyTopFunnel, KeyTopicStats, KeyGuestStats} {
		data, err := st.Get(context.Background(), key)
		require.NoError(t, err)
		assert.NotNil(t, data, key)
	}
	assert.NotEmpty(t, p.RunID())
}

func TestRun_UsesCache(t *testing.T) {
	st := store.NewMemory()
	g, tc := stubExtractors()
	first, err := newTestPipeline(t, st, g, tc, false).Run(context.Background(), rawDataset())
	require.NoError(t, err)

	// A second run makes no model calls.
	g2, tc2 := &mockGuestExtractor{}, &mockTopicClassifier{}
	second, err := newTestPipeline(t, st, g2, tc2, false).Run(context.Background(), rawDataset())
	require.NoError(t, err)

	g2.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
	tc2.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
	assert.Equal(t, first, second)
}

func TestRun_ForceRecomputes(t *testing.T) {
	st := store.NewMemory()
	g, tc := stubExtractors()
	_, err := newTestPipeline(t, st, g, tc, false).Run(context.Background(), rawDataset())
	require.NoError(t, err)

	g2, tc2 := stubExtractors()
	_, err = newTestPipeline(t, st, g2, tc2, true).Run(context.Background(), rawDataset())
	require.NoError(t, err)
	g2.AssertExpectations(t)
	tc2.AssertExpectations(t)
}

func TestAssignGuests_OncePerVideo(t *testing.T) {
	g, _ := stubExtractors()
	p := newTestPipeline(t, store.NewMemory(), g, nil, false)

	out, err := p.AssignGuests(context.Background(), rawDataset())
	require.NoError(t, err)

	g.AssertNumberOfCalls(t, "Extract", 3)
	assert.True(t, out.Has(model.ColGuestList))
	require.Equal(t, 4, out.Len())
	assert.Equal(t, []string{"Dr. Andrew Huberman"}, out.Videos[0].Guests)
	assert.Equal(t, []string{"Dr. Andrew Huberman"}, out.Videos[1].Guests)
	assert.Empty(t, out.Videos[3].Guests)
}

func TestAssignGuests_DoesNotMutateInput(t *testing.T) {
	g, _ := stubExtractors()
	p := newTestPipeline(t, store.NewMemory(), g, nil, false)

	raw := rawDataset()
	_, err := p.AssignGuests(context.Background(), raw)
	require.NoError(t, err)

	assert.False(t, raw.Has(model.ColGuestList))
	assert.Nil(t, raw.Videos[0].Guests)
}

func TestAssignGuests_MissingDescription(t *testing.T) {
	g := &mockGuestExtractor{}
	p := newTestPipeline(t, store.NewMemory(), g, nil, false)

	ds := model.NewDataset([]string{model.ColVideoID}, []model.Video{{VideoID: "v1"}})
	_, err := p.AssignGuests(context.Background(), ds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kpi.ErrMissingColumn))
}

func TestAssignGuests_NoExtractor(t *testing.T) {
	p := newTestPipeline(t, store.NewMemory(), nil, nil, false)
	_, err := p.AssignGuests(context.Background(), rawDataset())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no guest extractor")
}

func TestAssignGuests_Cancelled(t *testing.T) {
	g := &mockGuestExtractor{}
	p := newTestPipeline(t, store.NewMemory(), g, nil, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.AssignGuests(ctx, rawDataset())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	g.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestAssignTopics_OncePerTitle(t *testing.T) {
	_, tc := stubExtractors()
	p := newTestPipeline(t, store.NewMemory(), nil, tc, false)

	out, err := p.AssignTopics(context.Background(), rawDataset())
	require.NoError(t, err)

	tc.AssertNumberOfCalls(t, "Classify", 3)
	assert.True(t, out.Has(model.ColTopicCategory))
	assert.Equal(t, model.TopicHealth, out.Videos[1].Topic)
	assert.Equal(t, model.TopicOther, out.Videos[3].Topic)
}

func TestAssignTopics_InvalidLabelBecomesOther(t *testing.T) {
	tc := &mockTopicClassifier{}
	tc.On("Classify", mock.Anything, mock.Anything).Return(model.Topic("cooking"))
	p := newTestPipeline(t, store.NewMemory(), nil, tc, false)

	out, err := p.AssignTopics(context.Background(), rawDataset())
	require.NoError(t, err)
	for _, v := range out.Videos {
		assert.Equal(t, model.TopicOther, v.Topic)
	}
}

func TestComputeKPIs_AddsDaysSincePublished(t *testing.T) {
	p := newTestPipeline(t, store.NewMemory(), nil, nil, false)

	funnel := model.NewDataset(
		append(rawColumns, model.ColGuestList, model.ColTopicCategory),
		[]model.Video{
			{VideoID: "v1", Title: "A", PublishedAt: ts("2024-01-01T00:00:00Z"), ViewCount: 10, LikeCount: 1, CommentCount: 1, Topic: model.TopicHealth, Guests: []string{"A"}},
		},
	)
	res, err := p.ComputeKPIs(context.Background(), funnel)
	require.NoError(t, err)

	require.Len(t, res.Topics, 1)
	assert.InDelta(t, 0.0, res.Topics[0].WeightedScore, 1e-9)
	assert.Equal(t, 1, res.Topics[0].Rank)
	assert.False(t, funnel.Has(model.ColDaysSincePublished))
}

func TestComputeKPIs_MissingPublishFields(t *testing.T) {
	p := newTestPipeline(t, store.NewMemory(), nil, nil, false)

	funnel := model.NewDataset(
		[]string{model.ColVideoID, model.ColVideoTitle, model.ColViewCount, model.ColLikeCount, model.ColCommentCount, model.ColGuestList, model.ColTopicCategory},
		[]model.Video{{VideoID: "v1", Title: "A", Topic: model.TopicHealth, Guests: []string{"A"}}},
	)
	_, err := p.ComputeKPIs(context.Background(), funnel)
	require.Error(t, err)
	assert.ErrorIs(t, err, kpi.ErrMissingColumn)
	assert.Contains(t, err.Error(), model.ColVideoPublishedAt)
}

func TestLoadDataset(t *testing.T) {
	st := store.NewMemory()
	p := newTestPipeline(t, st, nil, nil, false)

	_, err := p.LoadDataset(context.Background(), KeyGuests)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cached artifact")

	require.NoError(t, store.PutJSON(context.Background(), st, KeyGuests, rawDataset()))
	ds, err := p.LoadDataset(context.Background(), KeyGuests)
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, rawColumns, ds.Columns)
}
