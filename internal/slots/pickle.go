package slots

import (
	"fmt"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"
)

// decodePickle reads a pickled list of (x, y) tuples, the format the
// interactive layout editor saves (conventionally to a file named
// CarParkPos with no extension).
//
// Tuples and lists are both accepted for the pairs. Arity is checked by the
// caller, so a pair is returned with however many integers it holds.
func decodePickle(b []byte) ([][]int, error) {
	v, err := pickle.Loads(string(b))
	if err != nil {
		return nil, err
	}

	items, ok := sequence(v)
	if !ok {
		return nil, fmt.Errorf("%w: pickled positions are %T, want a list", ErrInvalidConfig, v)
	}

	pairs := make([][]int, len(items))
	for i, item := range items {
		elems, ok := sequence(item)
		if !ok {
			return nil, fmt.Errorf("%w: position %d is %T, want an (x, y) tuple", ErrInvalidConfig, i, item)
		}
		pair := make([]int, len(elems))
		for j, e := range elems {
			n, ok := e.(int)
			if !ok {
				return nil, fmt.Errorf("%w: position %d value %d is %T, want int", ErrInvalidConfig, i, j, e)
			}
			pair[j] = n
		}
		pairs[i] = pair
	}
	return pairs, nil
}

func sequence(v interface{}) ([]interface{}, bool) {
	switch s := v.(type) {
	case *types.List:
		return *s, true
	case *types.Tuple:
		return *s, true
	}
	return nil, false
}
