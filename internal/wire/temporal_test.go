package wire

import "testing"

func TestDateValidity(t *testing.T) {
	cases := []struct {
		d     Date
		valid bool
	}{
		{Date{2024, 2, 29}, true},  // leap year
		{Date{2023, 2, 29}, false}, // not a leap year
		{Date{0, 0, 0}, false},
		{Date{2024, 0, 1}, false},
		{Date{2024, 13, 1}, false},
		{Date{10000, 1, 1}, false},
		{Date{2024, 4, 31}, false}, // April has 30 days
	}
	for _, tc := range cases {
		if got := tc.d.Valid(); got != tc.valid {
			t.Errorf("%+v.Valid() = %v, want %v", tc.d, got, tc.valid)
		}
	}
}

func TestBinaryDateRoundTrip(t *testing.T) {
	d := Date{Year: 2023, Month: 11, Day: 5}
	buf := PutBinaryDate(nil, d)
	got, pos, err := ReadBinaryDate(buf, 0)
	if err != nil || got != d || pos != len(buf) {
		t.Fatalf("got %+v pos=%d err=%v", got, pos, err)
	}
}

func TestBinaryDateZero(t *testing.T) {
	buf := PutBinaryDate(nil, Date{})
	if len(buf) != 1 || buf[0] != 0 {
		t.Fatalf("expected single zero-length byte, got %v", buf)
	}
	got, pos, err := ReadBinaryDate(buf, 0)
	if err != nil || got != (Date{}) || pos != 1 {
		t.Fatalf("got %+v pos=%d err=%v", got, pos, err)
	}
}

func TestBinaryDateTimeRoundTrip(t *testing.T) {
	cases := []DateTime{
		{},
		{Date: Date{2024, 1, 1}},
		{Date: Date{2024, 1, 1}, Hour: 13, Minute: 5, Second: 59},
		{Date: Date{2024, 1, 1}, Hour: 13, Minute: 5, Second: 59, Microsecond: 123456},
	}
	for _, dt := range cases {
		buf := PutBinaryDateTime(nil, dt)
		got, pos, err := ReadBinaryDateTime(buf, 0)
		if err != nil {
			t.Fatalf("%+v: %v", dt, err)
		}
		if pos != len(buf) {
			t.Fatalf("%+v: consumed %d of %d", dt, pos, len(buf))
		}
		if got != dt {
			t.Fatalf("got %+v want %+v", got, dt)
		}
	}
}

func TestBinaryTimeRoundTrip(t *testing.T) {
	cases := []Duration{
		{},
		{Negative: true, Days: 34, Hours: 22, Minutes: 59, Seconds: 59},
		{Days: 1, Hours: 2, Minutes: 3, Seconds: 4, Microsecond: 500},
	}
	for _, d := range cases {
		buf := PutBinaryTime(nil, d)
		got, pos, err := ReadBinaryTime(buf, 0)
		if err != nil {
			t.Fatalf("%+v: %v", d, err)
		}
		if pos != len(buf) {
			t.Fatalf("%+v: consumed %d of %d", d, pos, len(buf))
		}
		if got != d {
			t.Fatalf("got %+v want %+v", got, d)
		}
	}
}

func TestDurationMicroseconds(t *testing.T) {
	d := Duration{Negative: true, Hours: 1}
	if got := d.Microseconds(); got != -3600_000_000 {
		t.Fatalf("got %d", got)
	}
}
