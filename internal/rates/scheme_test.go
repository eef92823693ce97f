package rates

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garyjia/billing-audit/internal/models"
)

func TestSchemeFor(t *testing.T) {
	tests := []struct {
		name    string
		company string
		want    models.Scheme
	}{
		{
			name:    "southern railway payer",
			company: "SOUTHERN RAILWAY CHENNAI DIVISION",
			want:    models.SchemeCGHS,
		},
		{
			name:    "echs polyclinic in lowercase",
			company: "echs polyclinic coimbatore",
			want:    models.SchemeCGHS,
		},
		{
			name:    "cghs beneficiary",
			company: "CGHS Chennai",
			want:    models.SchemeCGHS,
		},
		{
			name:    "state government payer",
			company: "Government of Tamil Nadu",
			want:    models.SchemeCGHS,
		},
		{
			name:    "ex-servicemen scheme",
			company: "EX-SERVICEMEN CONTRIBUTORY HEALTH SCHEME",
			want:    models.SchemeCGHS,
		},
		{
			name:    "defence payer",
			company: "Ministry of Defence",
			want:    models.SchemeCGHS,
		},
		{
			name:    "private insurer",
			company: "Vidal Health TPA Pvt Ltd",
			want:    models.SchemeStandard,
		},
		{
			name:    "corporate payer",
			company: "M/S TATA CONSULTANCY SERVICES",
			want:    models.SchemeStandard,
		},
		{
			name:    "empty company",
			company: "",
			want:    models.SchemeStandard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SchemeFor(tt.company))
		})
	}
}
