package main

// Nutrients holds the macronutrients of a food, in grams, plus its energy in
// kilocalories. The zero value is the identity for Add.
type Nutrients struct {
	Carb    float64
	Fat     float64
	Protein float64
	KCal    float64
}

func (Nutrients) isFoodSpec() {}

// Add returns the element-wise sum of n and o.
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Carb:    n.Carb + o.Carb,
		Fat:     n.Fat + o.Fat,
		Protein: n.Protein + o.Protein,
		KCal:    n.KCal + o.KCal,
	}
}

// Scale multiplies every field by factor.
func (n Nutrients) Scale(factor float64) Nutrients {
	return Nutrients{
		Carb:    n.Carb * factor,
		Fat:     n.Fat * factor,
		Protein: n.Protein * factor,
		KCal:    n.KCal * factor,
	}
}

// WithKCal fills in KCal using the Atwater general factors
// (4*carb + 4*protein + 9*fat) when it is not already positive.
func (n Nutrients) WithKCal() Nutrients {
	if n.KCal > 0 {
		return n
	}
	n.KCal = 4*n.Carb + 4*n.Protein + 9*n.Fat
	return n
}

// SumNutrients adds up all values.
func SumNutrients(values ...Nutrients) Nutrients {
	var total Nutrients
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
