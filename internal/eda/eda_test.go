package eda

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/fedfraud/fedfraud/internal/dataset"
)

const sample = `transaction_id,user_id,amount,transaction_type,location,timestamp,device_type,merchant_id,is_international,is_fraud
1,U1,10,online,Lisbon,2024-01-01 09:00:00,mobile,M1,0,0
2,U2,20,transfer,Porto,2024-01-01 10:00:00,desktop,M2,1,1
3,U2,30,transfer,Porto,2024-01-03 11:00:00,desktop,M2,1,1
4,U3,40,instore,Lisbon,2024-01-03 12:00:00,pos,M3,0,1
5,U1,100,online,Faro,2024-01-04T08:00:00Z,mobile,M1,0,0
`

func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.ParseCSV(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestSummary(t *testing.T) {
	byName := make(map[string]ColumnSummary)
	for _, s := range Summary(sampleTable(t)) {
		byName[s.Column] = s
	}

	amount := byName[dataset.ColAmount]
	if !amount.Numeric || amount.Count != 5 || amount.Mean != 40 || amount.Min != 10 || amount.Max != 100 {
		t.Errorf("amount summary = %+v", amount)
	}
	if amount.Q25 < amount.Min || amount.Q75 > amount.Max || amount.Q25 > amount.Q50 || amount.Q50 > amount.Q75 {
		t.Errorf("quartiles out of order: %+v", amount)
	}

	users := byName[dataset.ColUserID]
	if users.Numeric || users.Unique != 3 || users.Top != "U1" || users.Freq != 2 {
		t.Errorf("user_id summary = %+v", users)
	}
}

func TestFraudStats(t *testing.T) {
	f, err := FraudStats(sampleTable(t))
	if err != nil {
		t.Fatal(err)
	}
	if f != (Fraud{Total: 5, Fraud: 3, Rate: 0.6}) {
		t.Errorf("FraudStats = %+v", f)
	}
	if !strings.Contains(f.String(), "Fraud Rate: 60.00%") {
		t.Errorf("String = %q", f.String())
	}
}

func TestFraudRateBy(t *testing.T) {
	got, err := FraudRateBy(sampleTable(t), dataset.ColTransactionType)
	if err != nil {
		t.Fatal(err)
	}
	want := []GroupRate{
		{Group: "instore", Count: 1, Rate: 1},
		{Group: "online", Count: 2, Rate: 0},
		{Group: "transfer", Count: 2, Rate: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FraudRateBy = %+v, want %+v", got, want)
	}

	if _, err := FraudRateBy(sampleTable(t), "channel"); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestHighRiskLocations(t *testing.T) {
	got, err := HighRiskLocations(sampleTable(t))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, r := range got {
		names = append(names, r.Group)
	}
	if !reflect.DeepEqual(names, []string{"Porto", "Lisbon", "Faro"}) {
		t.Errorf("locations = %v", names)
	}
}

func TestTopUsersByFraud(t *testing.T) {
	got, err := TopUsersByFraud(sampleTable(t), 5)
	if err != nil {
		t.Fatal(err)
	}
	want := []GroupCount{{Group: "U2", Count: 2}, {Group: "U3", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopUsersByFraud = %+v, want %+v", got, want)
	}
	got, _ = TopUsersByFraud(sampleTable(t), 1)
	if len(got) != 1 || got[0].Group != "U2" {
		t.Errorf("top 1 = %+v", got)
	}
}

func TestDailyVolume(t *testing.T) {
	got, err := DailyVolume(sampleTable(t))
	if err != nil {
		t.Fatal(err)
	}
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	want := []DayCount{{day(1), 2}, {day(2), 0}, {day(3), 2}, {day(4), 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DailyVolume = %+v, want %+v", got, want)
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{"2024-01-02", "2024-01-02 03:04:05", "2024-01-02T03:04:05Z", "2024-01-02 03:04"} {
		if _, err := ParseTimestamp(s); err != nil {
			t.Errorf("ParseTimestamp(%q): %v", s, err)
		}
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Error("expected error")
	}
}

func TestAmountHistogram(t *testing.T) {
	bins, err := AmountHistogram(sampleTable(t), AmountBins)
	if err != nil {
		t.Fatal(err)
	}
	if len(bins) != AmountBins {
		t.Fatalf("got %d bins", len(bins))
	}
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != 5 {
		t.Errorf("histogram holds %d rows, want 5", total)
	}
	if bins[0].Lo != 10 || bins[0].Count != 1 || bins[AmountBins-1].Count != 1 {
		t.Errorf("first bin %+v, last bin %+v", bins[0], bins[AmountBins-1])
	}
}

func TestWriteCharts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	paths, err := WriteCharts(sampleTable(t), dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 3 {
		t.Fatalf("wrote %v", paths)
	}
	data, err := os.ReadFile(filepath.Join(dir, FraudDistributionFile))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "label,count\nLegit,2\nFraud,3\n" {
		t.Errorf("fraud distribution = %q", data)
	}
	data, err = os.ReadFile(filepath.Join(dir, DailyTransactionsFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "date,transactions\n2024-01-01,2\n2024-01-02,0\n") {
		t.Errorf("daily transactions = %q", data)
	}
}

func TestPrint(t *testing.T) {
	tbl := sampleTable(t)
	var buf bytes.Buffer
	if err := PrintSummary(&buf, Summary(tbl)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "amount") || !strings.Contains(buf.String(), "40.0000") {
		t.Errorf("summary output:\n%s", buf.String())
	}

	buf.Reset()
	if err := PrintMissing(&buf, tbl.MissingCounts()); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != len(tbl.Header) {
		t.Errorf("missing output:\n%s", buf.String())
	}
}
