package metrics

import (
	"testing"
	"time"

	"inference-gateway/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserverCountsRuns(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(RunsTotal.WithLabelValues("translate", models.OutcomeSuccess, ""))
	attemptsBefore := testutil.ToFloat64(ProviderAttemptsTotal.WithLabelValues("translate"))
	supersededBefore := testutil.ToFloat64(SupersededTotal)

	Observer{}.ObserveRun(models.RunRecord{
		Task:     models.KindTranslate,
		Outcome:  models.OutcomeSuccess,
		Attempts: 3,
		Duration: 250 * time.Millisecond,
	})
	Observer{}.ObserveRun(models.RunRecord{
		Task:      models.KindTranslate,
		Outcome:   models.OutcomeFailure,
		ErrorKind: models.KindSuperseded,
	})

	assert.Equal(t, before+1, testutil.ToFloat64(RunsTotal.WithLabelValues("translate", models.OutcomeSuccess, "")))
	assert.Equal(t, attemptsBefore+3, testutil.ToFloat64(ProviderAttemptsTotal.WithLabelValues("translate")))
	assert.Equal(t, supersededBefore+1, testutil.ToFloat64(SupersededTotal))
}
