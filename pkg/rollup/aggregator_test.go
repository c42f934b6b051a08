package rollup

import (
	"testing"
	"time"

	"github.com/eunmann/inv-rollup/pkg/inventory"
	"github.com/eunmann/inv-rollup/pkg/pathkey"
)

type memorySink struct {
	entries []AuditEntry
}

func (s *memorySink) Record(e AuditEntry) {
	s.entries = append(s.entries, e)
}

func (s *memorySink) countByReason(reason Reason) int {
	n := 0
	for _, e := range s.entries {
		if e.Reason == reason {
			n++
		}
	}
	return n
}

func newTestAggregator() (*Aggregator, *memorySink) {
	sink := &memorySink{}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return New(Config{Sink: sink, Now: func() time.Time { return fixed }}), sink
}

func row(server, dir, length string) inventory.Row {
	return inventory.Row{ServerName: server, DirectoryName: dir, Length: length}
}

func TestIngest_DuplicatePathAccumulates(t *testing.T) {
	agg, _ := newTestAggregator()
	path := `\\ServerA\ShareB\Top\Sub1\Sub2`

	if got := agg.Ingest(row("SRV", path, "100")); got != Accepted {
		t.Fatalf("first Ingest = %v, want accepted", got)
	}
	key := pathkey.FolderKey{Drive: `\\ServerA\ShareB`, TopLevelFolder: "Top"}
	before := agg.Stats(key).SubfolderCount()

	agg.Ingest(row("SRV", path, "200"))

	st := agg.Stats(key)
	if st.TotalBytes != 300 {
		t.Errorf("TotalBytes = %d, want 300", st.TotalBytes)
	}
	if st.FileCount != 2 {
		t.Errorf("FileCount = %d, want 2", st.FileCount)
	}
	if st.SubfolderCount() != before || before != 2 {
		t.Errorf("SubfolderCount = %d (before %d), want 2", st.SubfolderCount(), before)
	}
}

func TestIngest_FileSegmentNotCountedAsSubfolder(t *testing.T) {
	agg, _ := newTestAggregator()
	agg.Ingest(row("SRV", `\\ServerA\ShareB\Top\Sub1\Sub2\file.txt`, "10"))

	st := agg.Stats(pathkey.FolderKey{Drive: `\\ServerA\ShareB`, TopLevelFolder: "Top"})
	if st.SubfolderCount() != 2 {
		t.Errorf("SubfolderCount = %d, want 2", st.SubfolderCount())
	}
	if _, ok := st.subfolders["Sub1"]; !ok {
		t.Error("missing subfolder Sub1")
	}
	if _, ok := st.subfolders[`Sub1\Sub2`]; !ok {
		t.Error("missing subfolder chain Sub1\\Sub2")
	}
	if _, ok := st.subfolders[`Sub1\Sub2\file.txt`]; ok {
		t.Error("file chain recorded as subfolder")
	}
}

func TestIngest_NonNumericLengthDegrades(t *testing.T) {
	agg, sink := newTestAggregator()
	r := row("SRV", `\\S\D\Top\x.bin`, "abc")
	r.Line = 7
	r.Raw = `SRV|\\S\D\Top\x.bin|abc`

	if got := agg.Ingest(r); got != Degraded {
		t.Fatalf("Ingest = %v, want degraded", got)
	}

	st := agg.Stats(pathkey.FolderKey{Drive: `\\S\D`, TopLevelFolder: "Top"})
	if st == nil {
		t.Fatal("degraded row was not aggregated")
	}
	if st.TotalBytes != 0 || st.FileCount != 1 {
		t.Errorf("stats = %+v, want 0 bytes and 1 file", st)
	}

	if len(sink.entries) != 1 {
		t.Fatalf("got %d audit entries, want 1", len(sink.entries))
	}
	e := sink.entries[0]
	if e.Reason != ReasonNonNumericLength || e.Line != 7 || e.Raw != r.Raw {
		t.Errorf("audit entry = %+v", e)
	}
	if !e.Reason.Degraded() {
		t.Error("NonNumericLength should be a degraded reason")
	}
	if c := agg.Counters(); c.Degraded != 1 || c.Accepted != 0 {
		t.Errorf("counters = %+v", c)
	}
}

func TestIngest_SkipsEmptyAndMissingDirectory(t *testing.T) {
	agg, sink := newTestAggregator()

	if got := agg.Ingest(inventory.Row{Line: 2, Raw: "||"}); got != Skipped {
		t.Errorf("empty row Ingest = %v, want skipped", got)
	}
	if got := agg.Ingest(inventory.Row{ServerName: "SRV", Length: "5", Line: 3}); got != Skipped {
		t.Errorf("missing directory Ingest = %v, want skipped", got)
	}
	if got := agg.Ingest(row("SRV", `\\S\D\Top`, "5")); got != Accepted {
		t.Errorf("valid row Ingest = %v, want accepted", got)
	}

	if agg.KeyCount() != 1 {
		t.Errorf("KeyCount = %d, want 1", agg.KeyCount())
	}
	if sink.countByReason(ReasonEmptyRow) != 1 {
		t.Errorf("EmptyRow entries = %d, want 1", sink.countByReason(ReasonEmptyRow))
	}
	if sink.countByReason(ReasonMissingDirectory) != 1 {
		t.Errorf("MissingDirectory entries = %d, want 1", sink.countByReason(ReasonMissingDirectory))
	}
	if sink.entries[0].Raw != "||" || sink.entries[0].Line != 2 {
		t.Errorf("empty row entry = %+v", sink.entries[0])
	}

	c := agg.Counters()
	if c.Rows != 3 || c.Skipped != 2 || c.Accepted != 1 {
		t.Errorf("counters = %+v", c)
	}
}

func TestIngest_UnmappedFieldIsMissingDirectory(t *testing.T) {
	agg, sink := newTestAggregator()

	got := agg.Ingest(inventory.Row{Line: 3, Raw: "|||alice", OtherFields: true})
	if got != Skipped {
		t.Fatalf("Ingest = %v, want skipped", got)
	}
	if len(sink.entries) != 1 || sink.entries[0].Reason != ReasonMissingDirectory {
		t.Errorf("audit entries = %+v, want one MissingDirectory", sink.entries)
	}
}

func TestSkip_Malformed(t *testing.T) {
	agg, sink := newTestAggregator()
	agg.Skip(9, "a|b|c", ReasonMalformedRow, "line 9: got 3 fields, header has 2")

	c := agg.Counters()
	if c.Malformed != 1 || c.Skipped != 1 || c.Rows != 1 {
		t.Errorf("counters = %+v", c)
	}
	if len(sink.entries) != 1 || sink.entries[0].Reason != ReasonMalformedRow {
		t.Errorf("entries = %+v", sink.entries)
	}
	if agg.KeyCount() != 0 {
		t.Errorf("KeyCount = %d, want 0", agg.KeyCount())
	}
}

func TestServerName_FirstRowSemantics(t *testing.T) {
	tests := []struct {
		name           string
		malformedFirst bool
		rows           []inventory.Row
		want           string
	}{
		{"no rows", false, nil, UnknownServer},
		{"first row has name", false, []inventory.Row{row("SRV1", `a\b`, "1"), row("SRV2", `a\b`, "1")}, "SRV1"},
		{"first row lacks name", false, []inventory.Row{row("", `a\b`, "1"), row("SRV2", `a\b`, "1")}, UnknownServer},
		{"first row skipped but named", false, []inventory.Row{{ServerName: "SRV3"}, row("SRV2", `a\b`, "1")}, "SRV3"},
		{"malformed line before first row", true, []inventory.Row{row("S2", `a\b`, "1"), row("S3", `a\b`, "1")}, "S2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, _ := newTestAggregator()
			if tt.malformedFirst {
				agg.Skip(2, "BAD|row", ReasonMalformedRow, "got 2 fields, header has 3")
			}
			for _, r := range tt.rows {
				agg.Ingest(r)
			}
			if got := agg.Finalize().ServerName; got != tt.want {
				t.Errorf("ServerName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServerName_CustomFallback(t *testing.T) {
	agg := New(Config{UnknownServer: "n/a"})
	agg.Ingest(row("", `a\b\c`, "1"))
	if got := agg.ServerName(); got != "n/a" {
		t.Errorf("ServerName = %q, want n/a", got)
	}
}

func TestFinalize_Empty(t *testing.T) {
	agg, _ := newTestAggregator()
	s := agg.Finalize()
	if len(s.Rows) != 0 {
		t.Errorf("got %d rows, want 0", len(s.Rows))
	}
}

func TestFinalize_TwoTopLevelFolders(t *testing.T) {
	agg, _ := newTestAggregator()
	rows := []inventory.Row{
		row("SRV", `\\SRV\d$\Finance\2024\q1.xlsx`, "1073741824"),
		row("SRV", `\\SRV\d$\Finance\2024\Q2`, "0"),
		row("SRV", `\\SRV\d$\HR\policies.pdf`, "2048"),
		row("SRV", `\\SRV\d$\Finance\archive\old\x.zip`, "536870912"),
		row("SRV", `\\SRV\d$\HR\People\Jane`, "x"),
	}
	for _, r := range rows {
		agg.Ingest(r)
	}

	s := agg.Finalize()
	if len(s.Rows) != 2 {
		t.Fatalf("got %d summary rows, want 2", len(s.Rows))
	}

	want := []SummaryRow{
		{
			ServerName:     "SRV",
			Drive:          `\\SRV\d$`,
			TopLevelFolder: "Finance",
			TotalBytes:     1610612736,
			DataGB:         "1.50",
			// 2024, 2024\Q2, archive, archive\old
			SubfolderCount: 4,
			FileCount:      3,
		},
		{
			ServerName:     "SRV",
			Drive:          `\\SRV\d$`,
			TopLevelFolder: "HR",
			TotalBytes:     2048,
			DataGB:         "0.00",
			// People, People\Jane
			SubfolderCount: 2,
			FileCount:      2,
		},
	}
	for i := range want {
		if s.Rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, s.Rows[i], want[i])
		}
	}

	if s.TotalFiles() != 5 {
		t.Errorf("TotalFiles = %d, want 5", s.TotalFiles())
	}
	if s.TotalBytes() != 1610614784 {
		t.Errorf("TotalBytes = %d, want 1610614784", s.TotalBytes())
	}
}

func TestFinalize_FirstSeenOrder(t *testing.T) {
	agg, _ := newTestAggregator()
	for _, top := range []string{"Zeta", "Alpha", "Mid", "Alpha", "Zeta"} {
		agg.Ingest(row("S", `\\h\s\`+top, "1"))
	}
	agg.Ingest(row("S", `\\h\s`, "1"))
	agg.Ingest(row("S", `lonely`, "1"))

	s := agg.Finalize()
	got := make([]string, len(s.Rows))
	for i, r := range s.Rows {
		got[i] = r.Drive + "|" + r.TopLevelFolder
	}
	want := []string{
		`\\h\s|Zeta`,
		`\\h\s|Alpha`,
		`\\h\s|Mid`,
		`\\h\s|Not Applicable`,
		`lonely|Not Applicable`,
	}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFinalize_OneGiB(t *testing.T) {
	agg, _ := newTestAggregator()
	agg.Ingest(row("S", `\\h\s\Top\f.dat`, "1073741824"))
	if got := agg.Finalize().Rows[0].DataGB; got != "1.00" {
		t.Errorf("DataGB = %q, want 1.00", got)
	}
}

func TestIngest_OrderIndependent(t *testing.T) {
	rows := []inventory.Row{
		row("S", `\\h\s\A\x\y\f.txt`, "10"),
		row("S", `\\h\s\A\x`, "20"),
		row("S", `\\h\s\B\q`, "abc"),
		row("S", `\\h\s\A\x\z`, "30"),
	}

	forward, _ := newTestAggregator()
	for _, r := range rows {
		forward.Ingest(r)
	}
	backward, _ := newTestAggregator()
	for i := len(rows) - 1; i >= 0; i-- {
		backward.Ingest(rows[i])
	}

	for _, key := range []pathkey.FolderKey{
		{Drive: `\\h\s`, TopLevelFolder: "A"},
		{Drive: `\\h\s`, TopLevelFolder: "B"},
	} {
		f, b := forward.Stats(key), backward.Stats(key)
		if f.TotalBytes != b.TotalBytes || f.FileCount != b.FileCount || f.SubfolderCount() != b.SubfolderCount() {
			t.Errorf("key %v: forward %+v != backward %+v", key, f, b)
		}
	}
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in     string
		want   uint64
		wantOK bool
	}{
		{"0", 0, true},
		{"1024", 1024, true},
		{"007", 7, true},
		{"18446744073709551615", 18446744073709551615, true},
		{"18446744073709551616", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"-5", 0, false},
		{" 5", 0, false},
		{"5 ", 0, false},
		{"1.5", 0, false},
		{"1e3", 0, false},
		{"١٢", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseLength(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseLength(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestOutcomeString(t *testing.T) {
	if Accepted.String() != "accepted" || Degraded.String() != "degraded" || Skipped.String() != "skipped" {
		t.Error("unexpected Outcome strings")
	}
}
