package obs

import (
	"fmt"
	"io"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// Authentication and authorization counters.
var (
	loginSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crm_login_success_total",
		Help: "Successful logins.",
	})

	loginFailureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_login_failure_total",
			Help: "Failed logins by internal reason.",
		},
		[]string{"reason"},
	)

	tokenRefreshTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crm_token_refresh_total",
		Help: "Session tokens refreshed.",
	})

	guardDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_guard_denied_total",
			Help: "Guarded operations refused, by guard.",
		},
		[]string{"guard"},
	)
)

// Init registers the metrics in the default registry. Call once at startup.
func Init() {
	prometheus.MustRegister(loginSuccessTotal, loginFailureTotal, tokenRefreshTotal, guardDeniedTotal)
}

// LoginSuccess records a successful login.
func LoginSuccess() { loginSuccessTotal.Inc() }

// LoginFailure records a failed login. The reason stays internal; it is
// never shown to the user.
func LoginFailure(reason string) { loginFailureTotal.WithLabelValues(reason).Inc() }

// TokenRefreshed records a session token refresh.
func TokenRefreshed() { tokenRefreshTotal.Inc() }

// GuardDenied records a guard refusal.
func GuardDenied(guard string) { guardDeniedTotal.WithLabelValues(guard).Inc() }

// WriteSnapshot dumps the current counter values to w, sorted by metric
// name. Used by the stats command; this process serves no HTTP listener.
func WriteSnapshot(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, lp := range m.GetLabel() {
				if labels != "" {
					labels += ","
				}
				labels += lp.GetName() + "=" + lp.GetValue()
			}
			value := 0.0
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			default:
				continue
			}
			if labels != "" {
				fmt.Fprintf(w, "%s{%s} %g\n", mf.GetName(), labels, value)
			} else {
				fmt.Fprintf(w, "%s %g\n", mf.GetName(), value)
			}
		}
	}
	return nil
}
