package domain_test

import (
	"testing"

	"github.com/nestlog/analytics-service/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestDailyActiveTime_TotalMinutes(t *testing.T) {
	day := domain.DailyActiveTime{
		Blocks: []domain.ActivityBlock{
			{StartMinute: 600, EndMinute: 660},
			{StartMinute: 720, EndMinute: 750},
		},
	}

	assert.Equal(t, 90, day.TotalMinutes())
}

func TestDailyActiveTime_TotalMinutes_Empty(t *testing.T) {
	day := domain.DailyActiveTime{Blocks: []domain.ActivityBlock{}}

	assert.Equal(t, 0, day.TotalMinutes())
}

func TestDailyActiveTime_FullDayBlock(t *testing.T) {
	day := domain.DailyActiveTime{
		Blocks: []domain.ActivityBlock{{StartMinute: 0, EndMinute: domain.MinutesPerDay}},
	}

	assert.Equal(t, 1440, day.TotalMinutes())
}
