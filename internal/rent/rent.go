/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package rent

import (
	"github.com/shopspring/decimal"
)

const (
	DefaultLamportsPerByteYear = 3480
	DefaultStorageOverhead     = 128
)

// DefaultExemptionThreshold is the number of years of rent an account must hold to be exempt
var DefaultExemptionThreshold = decimal.NewFromInt(2)

// Schedule is the storage-cost schedule of the hosting environment.
type Schedule struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  decimal.Decimal
	StorageOverhead     uint64
}

func Default() Schedule {
	return Schedule{
		LamportsPerByteYear: DefaultLamportsPerByteYear,
		ExemptionThreshold:  DefaultExemptionThreshold,
		StorageOverhead:     DefaultStorageOverhead,
	}
}

// MinimumBalance returns the lamports an account of size bytes must hold.
func (s Schedule) MinimumBalance(size int) uint64 {
	bytes := decimal.NewFromInt(int64(s.StorageOverhead) + int64(size))
	perYear := bytes.Mul(decimal.NewFromInt(int64(s.LamportsPerByteYear)))
	return uint64(perYear.Mul(s.ExemptionThreshold).Floor().IntPart())
}

// Delta returns the additional lamports required to grow from oldSize to newSize.
// Shrinking yields the refundable amount as a negative value.
func (s Schedule) Delta(oldSize, newSize int) int64 {
	return int64(s.MinimumBalance(newSize)) - int64(s.MinimumBalance(oldSize))
}
