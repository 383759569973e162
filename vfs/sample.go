// Copyright 2023-2024 Flatbase, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vfs

import (
	"fmt"
	"math/rand"

	"github.com/flatbase/flatsql/internal/dates"
	"github.com/flatbase/flatsql/sql"
)

// LCG parameters for the birth_date stream. A must be odd and C ≡ 1 mod 4
// for a power-of-two modulus; M gives a range of roughly 360 years of
// days.
const (
	lcgA = 15961
	lcgC = 13281
	lcgM = 1 << 17

	sampleBaseDate    = 2341972 // 1700-01-01
	sampleRecordCount = 100000000
)

var sampleFields = []string{"id", "name", "birth_date", "score"}

// sample generates pseudo-random benchmark rows. Values are drawn per
// access from the context's random source captured at open; the stream is
// deterministic for a fixed seed.
type sample struct {
	name   string
	rnd    *rand.Rand
	lcg    int
	prevID int
}

// OpenSample returns the SAMPLE source.
func OpenSample(ctx *sql.Context, name string) sql.Source {
	rnd := ctx.Rand()
	return &sample{name: name, rnd: rnd, lcg: rnd.Intn(lcgM)}
}

func (s *sample) Name() string {
	return s.name
}

func (s *sample) Close() error {
	return nil
}

func (s *sample) FieldIndex(name string) int {
	for i, f := range sampleFields {
		if f == name {
			return i
		}
	}
	return sql.FieldUnknown
}

func (s *sample) FieldName(i int) string {
	if i < 0 || i >= len(sampleFields) {
		return ""
	}
	return sampleFields[i]
}

func (s *sample) FieldCount() int {
	return len(sampleFields)
}

func (s *sample) RecordCount() int {
	return sampleRecordCount
}

func (s *sample) RecordValue(rowID, field int) (string, error) {
	switch field {
	case 0: // id: strictly increasing with random gaps
		s.prevID += s.rnd.Intn(10) + 1
		return fmt.Sprintf("%d", s.prevID), nil

	case 1: // name
		first := sampleFirstNames[s.rnd.Intn(len(sampleFirstNames))]
		last := sampleLastNames[s.rnd.Intn(len(sampleLastNames))]
		return first + " " + last, nil

	case 2: // birth_date from the LCG stream
		s.lcg = (lcgA*s.lcg + lcgC) % lcgM
		return dates.FromJulian(sampleBaseDate + s.lcg).FormatDate(), nil

	case 3: // score
		return fmt.Sprintf("%d", s.rnd.Intn(100)), nil
	}

	return "", fmt.Errorf("%s: field %d out of range", s.name, field)
}

var sampleFirstNames = []string{
	"John", "William", "James", "Charles", "George", "Frank", "Joseph",
	"Thomas", "Henry", "Robert", "Edward", "Harry", "Walter", "Arthur",
	"Fred", "Albert", "Samuel", "David", "Louis", "Joe", "Charlie",
	"Clarence", "Richard", "Andrew", "Daniel", "Ernest", "Will", "Jesse",
	"Oscar", "Lewis", "Peter", "Benjamin", "Frederick", "Willie", "Alfred",
	"Sam", "Roy", "Herbert", "Jacob", "Tom", "Elmer", "Carl", "Lee",
	"Howard", "Martin", "Michael", "Bert", "Herman", "Jim", "Francis",
	"Harvey", "Earl", "Eugene", "Ralph", "Ed", "Claude", "Edwin", "Ben",
	"Charley", "Paul", "Edgar", "Isaac", "Otto", "Luther", "Lawrence",
	"Ira", "Patrick", "Guy", "Oliver", "Theodore", "Hugh", "Clyde",
	"Alexander", "August", "Floyd", "Homer", "Jack", "Leonard", "Horace",
	"Marion", "Philip", "Allen", "Archie", "Stephen", "Chester", "Willis",
	"Raymond", "Rufus", "Warren", "Jessie", "Milton", "Alex", "Leo",
	"Julius", "Ray", "Sidney", "Bernard", "Dan", "Jerry", "Calvin",
	"Perry", "Dave", "Anthony", "Eddie", "Amos", "Dennis", "Clifford",
	"Leroy", "Wesley", "Alonzo", "Garfield", "Franklin", "Emil", "Leon",
	"Nathan", "Harold", "Matthew", "Levi", "Moses", "Everett", "Lester",
	"Winfield", "Adam", "Lloyd", "Mack", "Fredrick", "Jay", "Jess",
	"Melvin", "Noah", "Aaron", "Alvin", "Norman", "Gilbert", "Elijah",
	"Victor", "Gus", "Nelson", "Jasper", "Silas", "Christopher", "Jake",
	"Mike", "Percy", "Adolph", "Maurice", "Cornelius", "Felix", "Reuben",
	"Wallace", "Claud", "Roscoe", "Sylvester", "Earnest", "Hiram", "Otis",
	"Simon", "Willard", "Irvin", "Mark", "Jose", "Wilbur", "Abraham",
	"Virgil", "Clinton", "Elbert", "Leslie", "Marshall", "Owen", "Wiley",
	"Anton", "Morris", "Manuel", "Phillip", "Augustus", "Emmett", "Eli",
	"Nicholas", "Wilson", "Alva", "Harley", "Newton", "Timothy", "Marvin",
	"Ross", "Curtis", "Edmund", "Jeff", "Elias", "Harrison", "Stanley",
	"Columbus", "Lon", "Ora", "Ollie", "Russell", "Pearl", "Solomon",
	"Arch", "Asa", "Clayton", "Enoch", "Irving", "Mathew", "Nathaniel",
}

var sampleLastNames = []string{
	"SMITH", "JOHNSON", "WILLIAMS", "BROWN", "JONES", "MILLER", "DAVIS",
	"GARCIA", "RODRIGUEZ", "WILSON", "MARTINEZ", "ANDERSON", "TAYLOR",
	"THOMAS", "HERNANDEZ", "MOORE", "MARTIN", "JACKSON", "THOMPSON",
	"WHITE", "LOPEZ", "LEE", "GONZALEZ", "HARRIS", "CLARK", "LEWIS",
	"ROBINSON", "WALKER", "PEREZ", "HALL", "YOUNG", "ALLEN", "SANCHEZ",
	"WRIGHT", "KING", "SCOTT", "GREEN", "BAKER", "ADAMS", "NELSON",
	"HILL", "RAMIREZ", "CAMPBELL", "MITCHELL", "ROBERTS", "CARTER",
	"PHILLIPS", "EVANS", "TURNER", "TORRES", "PARKER", "COLLINS",
	"EDWARDS", "STEWART", "FLORES", "MORRIS", "NGUYEN", "MURPHY",
	"RIVERA", "COOK", "ROGERS", "MORGAN", "PETERSON", "COOPER", "REED",
	"BAILEY", "BELL", "GOMEZ", "KELLY", "HOWARD", "WARD", "COX", "DIAZ",
	"RICHARDSON", "WOOD", "WATSON", "BROOKS", "BENNETT", "GRAY", "JAMES",
	"REYES", "CRUZ", "HUGHES", "PRICE", "MYERS", "LONG", "FOSTER",
	"SANDERS", "ROSS", "MORALES", "POWELL", "SULLIVAN", "RUSSELL",
	"ORTIZ", "JENKINS", "GUTIERREZ", "PERRY", "BUTLER", "BARNES",
	"FISHER", "HENDERSON", "COLEMAN", "SIMMONS", "PATTERSON", "JORDAN",
	"REYNOLDS", "HAMILTON", "GRAHAM", "KIM", "GONZALES", "ALEXANDER",
	"RAMOS", "WALLACE", "GRIFFIN", "WEST", "COLE", "HAYES", "CHAVEZ",
	"GIBSON", "BRYANT", "ELLIS", "STEVENS", "MURRAY", "FORD", "MARSHALL",
	"OWENS", "MCDONALD", "HARRISON", "RUIZ", "KENNEDY", "WELLS",
	"ALVAREZ", "WOODS", "MENDOZA", "CASTILLO", "OLSON", "WEBB",
	"WASHINGTON", "TUCKER", "FREEMAN", "BURNS", "HENRY", "VASQUEZ",
	"SNYDER", "SIMPSON", "CRAWFORD", "JIMENEZ", "PORTER", "MASON",
	"SHAW", "GORDON", "WAGNER", "HUNTER", "ROMERO", "HICKS", "DIXON",
	"HUNT", "PALMER", "ROBERTSON", "BLACK", "HOLMES", "STONE", "MEYER",
	"BOYD", "MILLS", "WARREN", "FOX", "ROSE", "RICE", "MORENO",
	"SCHMIDT", "PATEL", "FERGUSON", "NICHOLS", "HERRERA", "MEDINA",
	"RYAN", "FERNANDEZ", "WEAVER", "DANIELS", "STEPHENS", "GARDNER",
	"PAYNE", "KELLEY", "DUNN", "PIERCE", "ARNOLD", "TRAN", "SPENCER",
	"PETERS", "HAWKINS", "GRANT", "HANSEN", "CASTRO", "HOFFMAN", "HART",
	"ELLIOTT", "CUNNINGHAM", "KNIGHT", "BRADLEY", "CARROLL", "HUDSON",
	"DUNCAN", "ARMSTRONG", "BERRY", "ANDREWS", "JOHNSTON", "RAY", "LANE",
	"RILEY", "CARPENTER", "PERKINS", "AGUILAR", "SILVA", "RICHARDS",
	"WILLIS", "MATTHEWS", "CHAPMAN", "LAWRENCE", "GARZA", "VARGAS",
	"WATKINS", "WHEELER", "LARSON", "CARLSON", "HARPER", "GEORGE",
	"GREENE", "BURKE", "GUZMAN", "MORRISON", "MUNOZ", "JACOBS", "OBRIEN",
	"LAWSON", "FRANKLIN", "LYNCH", "BISHOP", "CARR", "SALAZAR", "AUSTIN",
	"MENDEZ", "GILBERT", "JENSEN", "WILLIAMSON", "MONTGOMERY", "HARVEY",
	"OLIVER", "HOWELL", "DEAN", "HANSON", "WEBER", "GARRETT", "SIMS",
	"BURTON", "FULLER", "SOTO", "MCCOY", "WELCH", "CHEN", "SCHULTZ",
	"WALTERS", "REID", "FIELDS", "WALSH", "LITTLE", "FOWLER", "BOWMAN",
	"DAVIDSON", "MAY", "DAY", "SCHNEIDER", "NEWMAN", "BREWER", "LUCAS",
	"HOLLAND", "WONG", "BANKS", "SANTOS", "CURTIS", "PEARSON", "DELGADO",
	"VALDEZ", "PENA", "RIOS", "DOUGLAS", "SANDOVAL", "BARRETT",
	"HOPKINS", "KELLER", "GUERRERO", "STANLEY", "BATES", "ALVARADO",
	"BECK", "ORTEGA", "WADE", "ESTRADA", "CONTRERAS", "BARNETT",
	"CALDWELL", "SANTIAGO", "LAMBERT", "POWERS", "CHAMBERS", "NUNEZ",
	"CRAIG", "LEONARD", "LOWE", "RHODES", "BYRD", "GREGORY", "SHELTON",
	"FRAZIER", "BECKER",
}
