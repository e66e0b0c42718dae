package prometheus_test

import (
	"fmt"

	"github.com/agiza/cloudflare"
	cfprom "github.com/agiza/cloudflare/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
)

func ExampleWithRegisterer() {
	registry := prom.NewRegistry()

	restorer, err := cloudflare.New(cfprom.WithRegisterer(registry))
	if err != nil {
		panic(err)
	}

	prefixes, err := cloudflare.ParseCIDRs("203.0.113.0/24")
	if err != nil {
		panic(err)
	}

	decision := restorer.Decide(cloudflare.RequestInput{
		RemoteAddr: "203.0.113.5:443",
		ClaimedIP:  "198.51.100.9",
	}, cloudflare.NewRangeSet(prefixes...))

	families, err := registry.Gather()
	if err != nil {
		panic(err)
	}

	for _, family := range families {
		if family.GetName() != "client_ip_restoration_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				fmt.Printf("%s decision=%s count=%.0f\n",
					decision, label.GetValue(), metric.GetCounter().GetValue())
			}
		}
	}
	// Output: restore decision=restore count=1
}

func ExampleNew() {
	metrics, err := cfprom.New()
	if err != nil {
		panic(err)
	}

	restorer, err := cloudflare.New(cloudflare.WithMetrics(metrics))
	if err != nil {
		panic(err)
	}

	decision := restorer.Decide(cloudflare.RequestInput{
		RemoteAddr: "192.0.2.1:443",
		ClaimedIP:  "198.51.100.9",
	}, nil)

	fmt.Println(decision)
	// Output: reject_spoof
}
