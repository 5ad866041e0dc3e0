package evidence

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/domain/sampling"
	"autograph-ds-builder/logging"
)

func TestTag_Scenario(t *testing.T) {
	tagged, dir, ok, err := Tag("Drug X increases toxicity of Drug Y", map[string]record.Span{
		"Drug X": {Begin: 0, End: 6},
		"Drug Y": {Begin: 29, End: 35},
	}, "Drug X", "Drug Y", true)
	require.Nil(t, err)
	require.True(t, ok)
	assert.Equal(t, "$Drug X$ increases toxicity of ^Drug Y^", tagged)
	assert.Equal(t, DirForward, dir)
}

func TestTag_Backward(t *testing.T) {
	matches := map[string]record.Span{
		"Drug Y": {Begin: 0, End: 6},
		"Drug X": {Begin: 17, End: 23},
	}

	tagged, dir, ok, err := Tag("Drug Y is hit by Drug X", matches, "Drug X", "Drug Y", true)
	require.Nil(t, err)
	require.True(t, ok)
	assert.Equal(t, "^Drug Y^ is hit by $Drug X$", tagged)
	assert.Equal(t, DirBackward, dir)

	tagged, dir, ok, err = Tag("Drug Y is hit by Drug X", matches, "Drug X", "Drug Y", false)
	require.Nil(t, err)
	require.True(t, ok)
	assert.Equal(t, "$Drug Y$ is hit by ^Drug X^", tagged)
	assert.Equal(t, DirBackward, dir)
}

func TestTag_ExistingMarkers(t *testing.T) {
	tagged, dir, ok, err := Tag("Price $5 for Drug X and Drug Y^", map[string]record.Span{
		"Drug X": {Begin: 13, End: 19},
		"Drug Y": {Begin: 24, End: 30},
	}, "Drug X", "Drug Y", true)
	require.Nil(t, err)
	require.True(t, ok)
	assert.Equal(t, "Price 5 for $Drug X$ and ^Drug Y^", tagged)
	assert.Equal(t, DirForward, dir)
	assert.Equal(t, "Price 5 for Drug X and Drug Y", StripMarkers(tagged))
}

func TestTag_Skipped(t *testing.T) {
	_, _, ok, err := Tag("abcdef", map[string]record.Span{
		"abcd": {Begin: 0, End: 4},
		"cdef": {Begin: 2, End: 6},
	}, "abcd", "cdef", true)
	require.Nil(t, err)
	assert.False(t, ok)

	_, _, ok, err = Tag("abcdef", map[string]record.Span{
		"abc": {Begin: 0, End: 3},
		"def": {Begin: 3, End: 6},
	}, "abc", "def", true)
	require.Nil(t, err)
	assert.False(t, ok)

	_, _, ok, err = Tag("x A^B and C", map[string]record.Span{
		"A^B": {Begin: 2, End: 5},
		"C":   {Begin: 10, End: 11},
	}, "A^B", "C", true)
	require.Nil(t, err)
	assert.False(t, ok)
}

func TestTag_Malformed(t *testing.T) {
	_, _, _, err := Tag("A and B", map[string]record.Span{"A": {Begin: 0, End: 1}}, "A", "B", true)
	assert.ErrorIs(t, err, record.ErrMalformedRecord)

	_, _, _, err = Tag("A and B", map[string]record.Span{
		"A": {Begin: 0, End: 1},
		"B": {Begin: 6, End: 40},
	}, "A", "B", true)
	assert.ErrorIs(t, err, record.ErrMalformedRecord)
}

func groupCorpus(t *testing.T) string {
	var buf bytes.Buffer
	writer := record.NewJSONLWriter(&buf)
	write := func(sent string, matches map[string]record.Span, p, n []string) {
		require.Nil(t, writer.Write(&record.GroupLinkedSentence{
			Sent:    sent,
			Matches: matches,
			Groups:  record.Groups{P: p, N: n},
		}))
	}

	fwd := map[string]record.Span{"Aaa": {Begin: 0, End: 3}, "Bbb": {Begin: 8, End: 11}, "Ccc": {Begin: 16, End: 19}}
	write("Aaa and Bbb and Ccc", fwd, []string{"Aaa\tBbb"}, []string{"Aaa\tCcc"})
	write("Aaa, so Bbb, so Ccc", fwd, []string{"Aaa\tBbb"}, []string{"Ccc\tBbb"})

	bwd := map[string]record.Span{"Bbb": {Begin: 0, End: 3}, "Aaa": {Begin: 9, End: 12}}
	write("Bbb then Aaa", bwd, []string{"Aaa\tBbb"}, []string{"Bbb\tAaa"})

	require.Nil(t, writer.Flush())
	return buf.String()
}

var bagTriples = []record.Triple{
	{Src: "Aaa", Relation: "treats", Tgt: "Bbb"},
	{Src: "Aaa", Relation: "interacts", Tgt: "Bbb"},
	{Src: "Aaa", Relation: record.NARelation, Tgt: "Ccc"},
	{Src: "Ddd", Relation: "treats", Tgt: "Eee"},
}

func TestCollect_Merged(t *testing.T) {
	setting := &BagSetting{
		Logger:     logging.NewLoggerWithConfig(logging.GenerateTestConfig(t)),
		Rand:       sampling.NewRand(7),
		MaxBagSize: 4,
		KTag:       true,
	}

	result, counters, err := Collect(setting, bagTriples, strings.NewReader(groupCorpus(t)))
	require.Nil(t, err)
	assert.Equal(t, int64(3), counters.Get(CounterRecords))
	assert.Equal(t, int64(4), counters.Get(CounterTagged))

	assert.Equal(t, []record.Triple{
		{Src: "Aaa", Relation: record.NARelation, Tgt: "Ccc"},
		{Src: "Aaa", Relation: "interacts", Tgt: "Bbb"},
		{Src: "Aaa", Relation: "treats", Tgt: "Bbb"},
	}, result.Triples)

	require.Len(t, result.Bags, 2)
	bag := result.Bags[BagKey{Src: "Aaa", Tgt: "Bbb", Dir: DirNone}]
	require.NotNil(t, bag)
	assert.Equal(t, []string{"interacts", "treats"}, bag.Relations)
	assert.Nil(t, bag.E1)
	require.Len(t, bag.Sentences, 4)

	expect := []string{"$Aaa$ and ^Bbb^ and Ccc", "$Aaa$, so ^Bbb^, so Ccc", "^Bbb^ then $Aaa$"}
	assert.Equal(t, expect, bag.Sentences[:3])
	assert.Contains(t, expect, bag.Sentences[3])

	na := result.Bags[BagKey{Src: "Aaa", Tgt: "Ccc", Dir: DirNone}]
	require.NotNil(t, na)
	assert.Equal(t, []string{"$Aaa$ and Bbb and ^Ccc^", "$Aaa$ and Bbb and ^Ccc^", "$Aaa$ and Bbb and ^Ccc^", "$Aaa$ and Bbb and ^Ccc^"}, na.Sentences)
}

func TestCollect_Directional(t *testing.T) {
	setting := &BagSetting{
		Logger:     logging.NewLoggerWithConfig(logging.GenerateTestConfig(t)),
		Rand:       sampling.NewRand(7),
		MaxBagSize: 1,
		KTag:       true,
		ExpandRels: true,
	}
	require.True(t, setting.Directional())

	result, _, err := Collect(setting, bagTriples, strings.NewReader(groupCorpus(t)))
	require.Nil(t, err)
	require.Len(t, result.Bags, 3)

	fwd := result.Bags[BagKey{Src: "Aaa", Tgt: "Bbb", Dir: DirForward}]
	require.NotNil(t, fwd)
	assert.Equal(t, "Aaa", *fwd.E1)
	assert.Equal(t, "Bbb", *fwd.E2)
	require.Len(t, fwd.Sentences, 1)
	assert.Contains(t, []string{"$Aaa$ and ^Bbb^ and Ccc", "$Aaa$, so ^Bbb^, so Ccc"}, fwd.Sentences[0])

	bwd := result.Bags[BagKey{Src: "Aaa", Tgt: "Bbb", Dir: DirBackward}]
	require.NotNil(t, bwd)
	assert.Equal(t, "Bbb", *bwd.E1)
	assert.Equal(t, "Aaa", *bwd.E2)
	assert.Equal(t, []string{"^Bbb^ then $Aaa$"}, bwd.Sentences)
}

func TestCollect_MalformedAborts(t *testing.T) {
	setting := &BagSetting{
		Logger:     logging.NewLoggerWithConfig(logging.GenerateTestConfig(t)),
		Rand:       sampling.NewRand(7),
		MaxBagSize: 2,
		KTag:       true,
	}

	corpus := `{"sent":"Aaa and Bbb","matches":{"Aaa":[0,3]},"groups":{"p":["Aaa\tBbb"],"n":[]}}` + "\n"
	_, _, err := Collect(setting, bagTriples, strings.NewReader(corpus))
	assert.ErrorIs(t, err, record.ErrMalformedRecord)
}
