package common

import "testing"

func TestContainsAnyFold(t *testing.T) {
	cases := []struct {
		name    string
		s       string
		subs    []string
		expects bool
	}{
		{"case-insensitive", "Patchy Rain Nearby", []string{"rain"}, true},
		{"second needle", "Light SNOW", []string{"sleet", "snow"}, true},
		{"no match", "Sunny", []string{"cloud", "storm"}, false},
		{"no needles", "Sunny", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ContainsAnyFold(tc.s, tc.subs...); got != tc.expects {
				t.Fatalf("ContainsAnyFold(%q, %v) = %v; want %v", tc.s, tc.subs, got, tc.expects)
			}
		})
	}
}
