package specgen

import (
	"encoding/json"
	"fmt"

	"drone-configurator/internal/models"
)

// cannedSpec is the specification every fallback answer carries. It is kept
// as JSON text so the embedded block is byte-stable.
const cannedSpec = `{
  "frame": {
    "type": "5-inch Freestyle Quadcopter",
    "material": "Carbon Fiber",
    "wheelbase": "220mm",
    "weight": "120g"
  },
  "motors": {
    "type": "2306 Brushless",
    "kv": "2450KV",
    "quantity": 4
  },
  "escs": {
    "type": "4-in-1 ESC",
    "rating": "45A",
    "protocol": "DShot600"
  },
  "battery": {
    "type": "LiPo",
    "cells": "6S",
    "capacity": "1300mAh",
    "dischargeRate": "100C"
  },
  "flightController": {
    "type": "F7 Flight Controller",
    "firmware": "Betaflight",
    "gyro": "BMI270"
  },
  "props": {
    "type": "Tri-blade",
    "size": "5.1 inch",
    "pitch": "4.6"
  },
  "estimatedCost": "$350 - $450",
  "estimatedFlightTime": "4 - 6 minutes",
  "estimatedPayload": "Up to 250g"
}`

const fallbackTemplate = `Thanks for your request: "%s". Here is a well-balanced build that makes a great starting point.

I recommend a 5-inch quadcopter on a carbon fiber frame. It is durable, easy to repair and has a huge ecosystem of compatible parts. Pair it with 2306 2450KV motors on a 6S battery for a good mix of punch and efficiency, and a 45A 4-in-1 ESC to keep the wiring clean. An F7 flight controller running Betaflight gives you plenty of processing headroom and simple tuning.

This setup suits freestyle and general sport flying, and it can be adapted for cinematic work by adding a lightweight action camera.

Here are the detailed specifications:

` + "```json\n%s\n```" + `

Prices and flight times are estimates and depend on the exact parts and flying style.`

// FallbackSynthesizer produces the local answer used when no provider
// answered. It never fails and the prompt never changes the embedded block.
type FallbackSynthesizer struct{}

func NewFallbackSynthesizer() *FallbackSynthesizer {
	return &FallbackSynthesizer{}
}

// Synthesize returns the canned answer with prompt echoed once.
func (f *FallbackSynthesizer) Synthesize(prompt string) string {
	return fmt.Sprintf(fallbackTemplate, prompt, cannedSpec)
}

// CannedSpec returns a fresh decoded copy of the fallback specification.
func (f *FallbackSynthesizer) CannedSpec() models.ExtractedSpec {
	var spec models.ExtractedSpec
	if err := json.Unmarshal([]byte(cannedSpec), &spec); err != nil {
		panic(fmt.Sprintf("canned spec is not valid JSON: %v", err))
	}
	return spec
}
