// Package file loads the trained model artifacts from JSON files.
//
// A model directory holds:
//   - scaler.json: fitted standardisation ({"feature_names", "mean", "scale"})
//   - encoders.json: categorical classes per column, optional
//   - classifier.json: a logistic model or an exported tree ensemble
//
// Artifacts are read once at startup and are immutable afterwards.
package file
