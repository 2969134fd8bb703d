package courseService

import (
	"errors"
	"testing"

	courseModels "odl/models/course"

	"github.com/stretchr/testify/assert"
)

func TestResolveEnrollment(t *testing.T) {
	tests := []struct {
		name          string
		authenticated bool
		fetch         ModuleFetch
		want          EnrollmentStatus
	}{
		{
			name:          "unauthenticated overrides a successful fetch",
			authenticated: false,
			fetch:         ModuleFetch{Modules: []courseModels.Module{{Title: "Intro"}}},
			want:          EnrollmentNone,
		},
		{
			name:          "unauthenticated overrides a pending fetch",
			authenticated: false,
			fetch:         ModuleFetch{Pending: true},
			want:          EnrollmentNone,
		},
		{
			name:          "pending fetch resolves to unknown",
			authenticated: true,
			fetch:         ModuleFetch{Pending: true},
			want:          EnrollmentUnknown,
		},
		{
			name:          "fetch error is the not-enrolled signal",
			authenticated: true,
			fetch:         ModuleFetch{Err: errors.New("forbidden")},
			want:          EnrollmentNone,
		},
		{
			name:          "successful fetch with modules",
			authenticated: true,
			fetch:         ModuleFetch{Modules: []courseModels.Module{{Title: "Intro"}}},
			want:          EnrollmentActive,
		},
		{
			name:          "successful fetch with an empty module list still counts",
			authenticated: true,
			fetch:         ModuleFetch{Modules: []courseModels.Module{}},
			want:          EnrollmentActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveEnrollment(tt.authenticated, tt.fetch))
		})
	}
}

func TestShouldRedirectToPreview(t *testing.T) {
	assert.False(t, ShouldRedirectToPreview(EnrollmentUnknown), "no redirect while the gate is still resolving")
	assert.False(t, ShouldRedirectToPreview(EnrollmentActive))
	assert.True(t, ShouldRedirectToPreview(EnrollmentNone))
}
