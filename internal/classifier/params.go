package classifier

import (
	"fmt"
	"sort"
	"strings"
)

// Params is one hyperparameter combination, keyed by the names used in
// configuration files (e.g. "c", "penalty", "max_depth").
type Params map[string]any

// String renders the combination with sorted keys, e.g. "c=0.1 penalty=l2".
func (p Params) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, p[k])
	}
	return strings.Join(parts, " ")
}

func (p Params) floatValue(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	default:
		return 0, fmt.Errorf("%w: %s has type %T, want a number", ErrInvalidHyperparams, key, v)
	}
}

func (p Params) intValue(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != float64(int(t)) {
			return 0, fmt.Errorf("%w: %s=%v is not an integer", ErrInvalidHyperparams, key, t)
		}
		return int(t), nil
	default:
		return 0, fmt.Errorf("%w: %s has type %T, want an integer", ErrInvalidHyperparams, key, v)
	}
}

func (p Params) stringValue(key string, def string) (string, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s has type %T, want a string", ErrInvalidHyperparams, key, v)
	}
	return s, nil
}

// Factory builds an unfitted classifier for one combination.
type Factory func(Params) (Classifier, error)

// LogisticFactory overlays "c", "penalty", "max_iter" and "tol" on base.
func LogisticFactory(base LogisticConfig) Factory {
	return func(p Params) (Classifier, error) {
		cfg := base
		var err error
		if cfg.C, err = p.floatValue("c", cfg.C); err != nil {
			return nil, err
		}
		if cfg.Penalty, err = p.stringValue("penalty", cfg.Penalty); err != nil {
			return nil, err
		}
		if cfg.MaxIter, err = p.intValue("max_iter", cfg.MaxIter); err != nil {
			return nil, err
		}
		if cfg.Tol, err = p.floatValue("tol", cfg.Tol); err != nil {
			return nil, err
		}
		return NewLogistic(cfg)
	}
}

// GBTFactory overlays the boosting hyperparameters on base.
func GBTFactory(base GBTConfig) Factory {
	return func(p Params) (Classifier, error) {
		cfg := base
		var err error
		if cfg.NEstimators, err = p.intValue("n_estimators", cfg.NEstimators); err != nil {
			return nil, err
		}
		if cfg.MaxDepth, err = p.intValue("max_depth", cfg.MaxDepth); err != nil {
			return nil, err
		}
		if cfg.LearningRate, err = p.floatValue("learning_rate", cfg.LearningRate); err != nil {
			return nil, err
		}
		if cfg.Subsample, err = p.floatValue("subsample", cfg.Subsample); err != nil {
			return nil, err
		}
		if cfg.MinChildWeight, err = p.floatValue("min_child_weight", cfg.MinChildWeight); err != nil {
			return nil, err
		}
		if cfg.Lambda, err = p.floatValue("lambda", cfg.Lambda); err != nil {
			return nil, err
		}
		if cfg.MaxBins, err = p.intValue("max_bins", cfg.MaxBins); err != nil {
			return nil, err
		}
		return NewGBT(cfg)
	}
}
