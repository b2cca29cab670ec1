package server

import "testing"

func TestIsFireInputClassification(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{`{"Fire":{"angle_deg":45.0,"power_percent":80.0,"weapon":"Bazooka"}}`, true},
		{`{"DrillFire":{"angle_deg":10.0}}`, true},
		{`{"AirstrikeTarget":{"x":100.0}}`, true},
		{`{"BatSwing":{"dir":1}}`, true},
		{`{"TeleportTo":{"x":5.0,"y":6.0}}`, true},
		{`{"BuildWallPlace":{"x":5.0,"y":6.0}}`, true},
		{`{"Walk":{"dir":1}}`, false},
		{`{"Jump":null}`, false},
		{`{"Backflip":null}`, false},
		{``, false},
		{`not json`, false},
		{`{"Unknown":{}}`, false},
	}
	for _, tc := range cases {
		if got := isFireInput(tc.input); got != tc.want {
			t.Fatalf("isFireInput(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}
