package docstore

import (
	"reflect"
	"strings"
	"testing"

	"truvamate/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestApplyLegacySettings(t *testing.T) {
	cases := []struct {
		name     string
		data     map[string]interface{}
		min, max int64
	}{
		{
			name: "whole baht converted",
			data: map[string]interface{}{"minOrderValue": int64(500), "maxCommissionPerReferral": int64(500)},
			min:  50000,
			max:  50000,
		},
		{
			name: "fractional baht rounded to cents",
			data: map[string]interface{}{"minOrderValue": 99.99, "maxCommissionPerReferral": 12.34},
			min:  9999,
			max:  1234,
		},
		{
			name: "cents fields win",
			data: map[string]interface{}{
				"minOrderValueCents": int64(100), "minOrderValue": int64(500),
				"maxCommissionCents": int64(200), "maxCommissionPerReferral": int64(500),
			},
			min: 100,
			max: 200,
		},
		{
			name: "nothing legacy",
			data: map[string]interface{}{"commissionRate": 10.0},
			min:  100,
			max:  200,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := models.ReferralSettings{MinOrderValueCents: 100, MaxCommissionCents: 200}
			applyLegacySettings(&out, tc.data)
			assert.Equal(t, tc.min, out.MinOrderValueCents)
			assert.Equal(t, tc.max, out.MaxCommissionCents)
		})
	}
}

// Amounts are stored in minor units, so their document fields must not reuse
// the whole-baht names of earlier documents.
func TestAmountFieldsNamedInCents(t *testing.T) {
	for _, v := range []interface{}{
		models.Referral{}, models.ReferralCode{}, models.CommissionTransaction{}, models.ReferralSettings{},
	} {
		typ := reflect.TypeOf(v)
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			if !strings.HasSuffix(f.Name, "Cents") {
				continue
			}
			name := strings.Split(f.Tag.Get("firestore"), ",")[0]
			assert.True(t, strings.HasSuffix(name, "Cents"), "%s.%s stored as %q", typ.Name(), f.Name, name)
		}
	}
}
