package codec

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/pipeline"
	"github.com/arloliu/bitrec/record"
	"github.com/arloliu/bitrec/ucode"
)

func testPlan(t *testing.T) *Plan {
	t.Helper()

	def, err := record.NewBuilder().
		Column("id").Type(record.TypeUint64).Ascending().
		Column("score").Type(record.TypeFloat64).Nullable().
		Column("name").Type(record.TypeString).
		Column("flag").Type(record.TypeBool).
		Column("delta").Type(record.TypeInt64).Nullable().
		Column("blob").Type(record.TypeBytes).
		Build()
	require.NoError(t, err)

	low, err := record.Ordinal(record.TypeInt64, int64(-2))
	require.NoError(t, err)

	plan, err := NewPlan(def, []ColumnPlan{
		{Name: "id", Code: ucode.Spec{Kind: ucode.KindGolomb, Param: 4}, Offset: 100, Limit: 40, Reserved: 1},
		{Name: "score", Code: ucode.Spec{Kind: ucode.KindFixed, Param: 64}, Limit: math.MaxUint64 - 2, Reserved: 2},
		{Name: "name", Code: ucode.Spec{Kind: ucode.KindRice, Param: 2}, Limit: 8, Reserved: 1},
		{Name: "flag", Code: ucode.Spec{Kind: ucode.KindTruncatedBinary, Param: 3}, Limit: 1, Reserved: 1},
		{Name: "delta", Code: ucode.Spec{Kind: ucode.KindTruncatedBinary, Param: 5}, Offset: low, Limit: 2, Reserved: 2},
		{Name: "blob", Code: ucode.Spec{Kind: ucode.KindUnary}, Limit: 3, Reserved: 1},
	})
	require.NoError(t, err)

	return plan
}

func testRecords() []record.Record {
	return []record.Record{
		{uint64(100), 1.5, "alpha", true, int64(-2), []byte{1, 2}},
		{uint64(99), nil, "", false, nil, []byte{}},
		{uint64(131), -0.25, "βeta", true, int64(0), []byte{0xFF}},
		{uint64(math.MaxUint64), math.Inf(-1), "x", false, int64(7), []byte{}},
		{uint64(102), math.MaxFloat64, "yz", true, int64(math.MinInt64), []byte{9, 8, 7}},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	plan := testPlan(t)
	recs := testRecords()

	data, summary, err := EncodeRecords(plan, recs)
	require.NoError(t, err)
	require.EqualValues(t, len(recs), summary.Records)
	require.EqualValues(t, summary.Bytes(), len(data))

	var sum uint64
	for i, rec := range recs {
		n, err := plan.RecordBits(rec)
		require.NoError(t, err, "record %d", i)
		sum += n
	}
	require.Equal(t, summary.TotalBits, sum)

	var cols uint64
	for _, b := range summary.ColumnBits {
		cols += b
	}
	require.Equal(t, summary.TotalBits, cols)

	back, err := DecodeRecords(plan, data, summary.Records)
	require.NoError(t, err)
	require.Equal(t, recs, back)
}

func TestEncodeDecode_Empty(t *testing.T) {
	plan := testPlan(t)

	data, summary, err := EncodeRecords(plan, nil)
	require.NoError(t, err)
	require.Empty(t, data)
	require.Zero(t, summary.TotalBits)

	back, err := DecodeRecords(plan, data, 0)
	require.NoError(t, err)
	require.Empty(t, back)
}

func TestEncode_ShapeErrors(t *testing.T) {
	plan := testPlan(t)

	_, _, err := EncodeRecords(plan, []record.Record{{uint64(1)}})
	require.ErrorIs(t, err, errs.ErrRecordShape)

	bad := testRecords()[0]
	bad = append(record.Record(nil), bad...)
	bad[0] = nil
	_, _, err = EncodeRecords(plan, []record.Record{bad})
	require.ErrorIs(t, err, errs.ErrRecordShape)
}

func TestDecode_Truncated(t *testing.T) {
	plan := testPlan(t)
	data, summary, err := EncodeRecords(plan, testRecords())
	require.NoError(t, err)

	_, err = DecodeRecords(plan, data[:len(data)/2], summary.Records)
	require.ErrorIs(t, err, errs.ErrEndOfStream)
}

func TestWriter_States(t *testing.T) {
	plan := testPlan(t)
	rec := testRecords()[0]

	w, err := NewWriter(plan)
	require.NoError(t, err)
	require.Equal(t, StateNew, w.State())
	require.NoError(t, w.Prepare(nil))
	require.Equal(t, 1, w.RequiredPasses())
	require.NoError(t, w.BeginPass(0))
	require.NoError(t, w.Consume(rec))
	require.NoError(t, w.EndPass())
	require.NoError(t, w.Complete())
	require.Equal(t, StateComplete, w.State())

	misuse := []struct {
		name string
		run  func(w *Writer) error
		want State
	}{
		{"consume before begin", func(w *Writer) error { return w.Consume(rec) }, StateNew},
		{"begin before prepare", func(w *Writer) error { return w.BeginPass(0) }, StateNew},
		{"complete before pass", func(w *Writer) error {
			require.NoError(t, w.Prepare(nil))
			return w.Complete()
		}, StatePrepared},
		{"end before begin", func(w *Writer) error {
			require.NoError(t, w.Prepare(nil))
			return w.EndPass()
		}, StatePrepared},
		{"prepare in pass", func(w *Writer) error {
			require.NoError(t, w.Prepare(nil))
			require.NoError(t, w.BeginPass(0))
			return w.Prepare(nil)
		}, StateInPass},
	}
	for _, tt := range misuse {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWriter(plan)
			require.NoError(t, err)

			err = tt.run(w)
			var se *errs.StateError
			require.ErrorAs(t, err, &se)
			require.Equal(t, tt.want, se.State)
			require.Equal(t, StateFailed, w.State())
			require.ErrorIs(t, w.Consume(rec), errs.ErrState)
		})
	}
}

func TestReader_States(t *testing.T) {
	plan := testPlan(t)

	r, err := NewReader(plan)
	require.NoError(t, err)
	require.ErrorIs(t, r.Prepare(nil), errs.ErrInvalidPlan)
	require.Equal(t, StateFailed, r.State())

	r, err = NewReader(plan, WithData([]byte{}))
	require.NoError(t, err)
	require.ErrorIs(t, r.Prepare(nil), ErrUnknownCount)

	r, err = NewReader(plan, WithData([]byte{}), WithRecordCount(0))
	require.NoError(t, err)
	_, err = r.Open()
	require.ErrorIs(t, err, errs.ErrState)

	r, err = NewReader(plan, WithData([]byte{}), WithRecordCount(0))
	require.NoError(t, err)
	require.NoError(t, r.Prepare(nil))
	seq, err := r.Open()
	require.NoError(t, err)
	require.False(t, seq.HasNext())
	_, err = seq.Next()
	require.ErrorIs(t, err, errs.ErrEndOfStream)
	require.NoError(t, seq.Close())
	require.NoError(t, r.Complete())

	// a second Open while a sequence is live fails the job and releases the sequence
	require.NoError(t, r.Prepare(nil))
	seq, err = r.Open()
	require.NoError(t, err)
	_, err = r.Open()
	require.ErrorIs(t, err, errs.ErrState)
	require.Equal(t, StateFailed, r.State())
	_, err = seq.Next()
	require.ErrorIs(t, err, errs.ErrState)
	require.NoError(t, seq.Close())
	require.ErrorIs(t, r.Complete(), errs.ErrState)
}

func TestFileJob(t *testing.T) {
	dir := t.TempDir()
	ctx := &pipeline.Context{
		DataPath:  filepath.Join(dir, "data.bits"),
		PlanPath:  filepath.Join(dir, "plan.json"),
		StatsPath: filepath.Join(dir, "data.stats"),
	}
	plan := testPlan(t)
	recs := testRecords()

	w, err := NewWriter(plan, WithPadBit(1), WithBigEndianStats())
	require.NoError(t, err)
	require.NoError(t, pipeline.Run(ctx, &pipeline.SliceProducer{Records: recs}, w))
	summary := w.Summary()

	info, err := os.Stat(ctx.DataPath)
	require.NoError(t, err)
	require.EqualValues(t, summary.Bytes(), info.Size())

	h, fromFile, err := ReadStatsFile(ctx.StatsPath)
	require.NoError(t, err)
	require.True(t, h.IsBigEndian())
	require.Equal(t, summary, fromFile)

	loaded, err := LoadPlan(ctx.PlanPath)
	require.NoError(t, err)
	require.True(t, plan.Equal(loaded))

	// unchanged inputs need no pass
	again, err := NewWriter(plan)
	require.NoError(t, err)
	require.NoError(t, again.Prepare(ctx))
	require.Zero(t, again.RequiredPasses())
	require.Equal(t, summary, again.Summary())
	require.NoError(t, again.Complete())

	clean := *ctx
	clean.Clean = true
	forced, err := NewWriter(plan)
	require.NoError(t, err)
	require.NoError(t, forced.Prepare(&clean))
	require.Equal(t, 1, forced.RequiredPasses())

	r, err := NewReader(loaded)
	require.NoError(t, err)
	sink := &pipeline.SliceConsumer{}
	require.NoError(t, pipeline.Run(ctx, r, sink))
	require.Equal(t, recs, sink.Records)
	require.Equal(t, StateComplete, r.State())
}

func TestWriter_AbortRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	ctx := &pipeline.Context{DataPath: filepath.Join(dir, "data.bits")}

	w, err := NewWriter(testPlan(t))
	require.NoError(t, err)
	require.NoError(t, w.Prepare(ctx))
	require.NoError(t, w.BeginPass(0))
	require.NoError(t, w.Consume(testRecords()[0]))

	require.ErrorIs(t, w.Consume(record.Record{}), errs.ErrRecordShape)
	require.Equal(t, StateFailed, w.State())
	_, err = os.Stat(ctx.DataPath)
	require.True(t, os.IsNotExist(err))
	require.NoError(t, w.Abort())
}

type failAfter struct {
	pipeline.SliceConsumer
	limit int
}

func (c *failAfter) Consume(rec record.Record) error {
	if len(c.Records) == c.limit {
		return errors.New("sink full")
	}

	return c.SliceConsumer.Consume(rec)
}

func TestRun_FailureAbortsWriter(t *testing.T) {
	dir := t.TempDir()
	ctx := &pipeline.Context{DataPath: filepath.Join(dir, "data.bits")}

	w, err := NewWriter(testPlan(t))
	require.NoError(t, err)

	err = pipeline.Run(ctx, &pipeline.SliceProducer{Records: testRecords()}, w, &failAfter{limit: 2})
	require.ErrorContains(t, err, "sink full")
	require.Equal(t, StateAborted, w.State())
	_, err = os.Stat(ctx.DataPath)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, w.Abort())
	require.ErrorIs(t, w.Consume(testRecords()[0]), errs.ErrState)
}

func TestRun_FailureAbortsReader(t *testing.T) {
	plan := testPlan(t)
	data, summary, err := EncodeRecords(plan, testRecords())
	require.NoError(t, err)

	r, err := NewReader(plan, WithData(data), WithRecordCount(summary.Records))
	require.NoError(t, err)

	err = pipeline.Run(nil, r, &failAfter{limit: 1})
	require.ErrorContains(t, err, "sink full")
	require.Equal(t, StateAborted, r.State())
	_, err = r.Open()
	require.ErrorIs(t, err, errs.ErrState)
}

func TestStatsFile_Mismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s")
	plan := testPlan(t)

	h, err := NewStatsHeader(plan)
	require.NoError(t, err)
	s := Summary{Records: 3, TotalBits: 1 << 40, ColumnBits: []uint64{0, 1, 2, 3, 4, math.MaxUint64}}
	require.NoError(t, WriteStatsFile(path, h, s))

	got, err := ValidateStatsFile(path, plan)
	require.NoError(t, err)
	require.Equal(t, s, got)

	other, err := NewPlan(plan.Definition(), func() []ColumnPlan {
		cols := plan.Columns()
		cols[0].Offset = 0
		return cols
	}())
	require.NoError(t, err)
	_, err = ValidateStatsFile(path, other)
	require.ErrorIs(t, err, errs.ErrStatsMismatch)

	require.ErrorIs(t, WriteStatsFile(path, h, Summary{}), errs.ErrStatsMismatch)

	require.NoError(t, os.WriteFile(path, []byte("BRSX0000000000000000"), 0o600))
	_, _, err = ReadStatsFile(path)
	require.ErrorIs(t, err, errs.ErrInvalidMagic)

	require.NoError(t, os.WriteFile(path, []byte("BRST"), 0o600))
	_, _, err = ReadStatsFile(path)
	require.ErrorIs(t, err, errs.ErrInvalidHeader)

	_, _, err = ReadStatsFile(filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, errs.ErrIO)
}

func TestStatsHeader_ColumnLimit(t *testing.T) {
	wide := func(n int) *Plan {
		b := record.NewBuilder()
		cols := make([]ColumnPlan, n)
		for i := range n {
			name := fmt.Sprintf("c%d", i)
			b.Column(name).Type(record.TypeBool)
			cols[i] = ColumnPlan{Name: name, Code: ucode.Spec{Kind: ucode.KindFixed, Param: 1}, Limit: 0, Reserved: 1}
		}
		def, err := b.Build()
		require.NoError(t, err)
		plan, err := NewPlan(def, cols)
		require.NoError(t, err)

		return plan
	}

	h, err := NewStatsHeader(wide(MaxStatsColumns))
	require.NoError(t, err)
	require.EqualValues(t, MaxStatsColumns, h.Columns)

	tooWide := wide(MaxStatsColumns + 1)
	_, err = NewStatsHeader(tooWide)
	require.ErrorIs(t, err, errs.ErrInvalidPlan)

	dir := t.TempDir()
	w, err := NewWriter(tooWide)
	require.NoError(t, err)
	ctx := &pipeline.Context{DataPath: filepath.Join(dir, "d"), StatsPath: filepath.Join(dir, "s")}
	require.ErrorIs(t, w.Prepare(ctx), errs.ErrInvalidPlan)
	require.Equal(t, StateFailed, w.State())
	_, err = os.Stat(ctx.DataPath)
	require.True(t, os.IsNotExist(err))
}

func TestStatsHeader_Bytes(t *testing.T) {
	h := StatsHeader{Version: StatsVersion, Columns: 0x0102, Fingerprint: 0x0A0B0C0D0E0F1011}
	le := h.Bytes()
	require.Len(t, le, StatsHeaderSize)
	assert.Equal(t, []byte("BRST"), le[:4])
	assert.Equal(t, []byte{0x02, 0x01}, le[6:8])

	h.WithBigEndian()
	be := h.Bytes()
	assert.Equal(t, []byte{0x01, 0x02}, be[6:8])

	var parsed StatsHeader
	require.NoError(t, parsed.Parse(be))
	require.Equal(t, h, parsed)

	be[5] |= 0x80
	require.ErrorIs(t, parsed.Parse(be), errs.ErrInvalidHeader)
	be[5] = 0
	be[4] = 9
	require.ErrorIs(t, parsed.Parse(be), errs.ErrInvalidVersion)
}

func TestPlan_Validation(t *testing.T) {
	plan := testPlan(t)
	def := plan.Definition()

	cols := plan.Columns()
	cols[1].Reserved = 1
	_, err := NewPlan(def, cols)
	require.ErrorIs(t, err, errs.ErrInvalidPlan)

	cols = plan.Columns()
	cols[0].Name = "other"
	_, err = NewPlan(def, cols)
	require.ErrorIs(t, err, errs.ErrInvalidPlan)

	cols = plan.Columns()
	cols[4].Code = ucode.Spec{Kind: ucode.KindTruncatedBinary, Param: 1}
	_, err = NewPlan(def, cols)
	require.ErrorIs(t, err, errs.ErrInvalidPlan)

	cols = plan.Columns()
	cols[0].Code = ucode.Spec{Kind: ucode.KindGolomb}
	_, err = NewPlan(def, cols)
	require.ErrorIs(t, err, errs.ErrInvalidParameter)

	_, err = NewPlan(def, cols[:2])
	require.ErrorIs(t, err, errs.ErrInvalidPlan)

	// Rice(2) and Golomb(4) are the same code
	cols = plan.Columns()
	cols[0].Code = ucode.Spec{Kind: ucode.KindRice, Param: 2}
	same, err := NewPlan(def, cols)
	require.NoError(t, err)
	require.True(t, plan.Equal(same))
}
