// Package main provides the Ember bridge demo CLI.
//
// It builds a small synthetic two-stream minibatch (one fixed-shape stream,
// one variable-length sequence stream), unpacks it, and reports the
// per-example values. Useful as a smoke check of the bridge.
package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ember-ml/ember/minibatch"
	"github.com/ember-ml/ember/tensor"
)

const version = "v0.1.0-dev"

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if flag.Arg(0) == "version" {
		log.Infof("Ember bridge %s", version)
		return
	}

	if err := run(log); err != nil {
		log.WithError(err).Error("unpack failed")
		os.Exit(1)
	}
}

func run(log *logrus.Logger) error {
	// Stream 0: fixed shape [4] per example, no sequence structure. The
	// pipeline still pads a sequence axis of length 1.
	fixed := make([]float32, 4*1*3)
	for i := range fixed {
		fixed[i] = float32(i)
	}
	fixedView, err := tensor.DenseOf(fixed, tensor.Shape{4, 1, 3}, tensor.CPU)
	if err != nil {
		return err
	}
	fixedBatch, err := minibatch.NewPackedBatch(fixedView, nil)
	if err != nil {
		return err
	}

	// Stream 1: shape [2] per time step, per-example lengths 1, 3, 2,
	// padded to the longest sequence.
	seq := make([]float32, 2*3*3)
	for i := range seq {
		seq[i] = float32(i) / 2
	}
	seqView, err := tensor.DenseOf(seq, tensor.Shape{2, 3, 3}, tensor.CPU)
	if err != nil {
		return err
	}
	seqBatch, err := minibatch.NewPackedBatch(seqView, []int{1, 3, 2})
	if err != nil {
		return err
	}

	streams := []minibatch.StreamDescriptor{
		{SampleShape: tensor.Shape{4}, DType: tensor.Float32},
		{SampleShape: tensor.Shape{2}, DType: tensor.Float32, HasSequenceAxis: true},
	}

	u := minibatch.NewUnpacker()
	res, err := u.Unpack([]*minibatch.PackedBatch{fixedBatch, seqBatch}, streams, tensor.CPU)
	if err != nil {
		return err
	}

	for i, stream := range res {
		for s, c := range stream {
			log.WithFields(logrus.Fields{
				"stream":  i,
				"example": s,
				"shape":   c.Shape(),
				"dtype":   c.DType().String(),
				"device":  c.Device().String(),
			}).Info("unpacked constant")
			log.Debugf("values: %v", c.View().AsFloat32())
		}
	}
	return nil
}
