/*
 * doc.go, part of pdbsite.
 *
 * Copyright 2026 The pdbsite authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*
Package pdbsite finds, for a residue of a protein, the experimentally solved
structures that contain it, and the atom that represents it in each of them.
A property of that atom (solvent accessible surface, distances to nearby
atoms) is then computed, at most once, and kept in a durable log.

The root package provides the data model: structures read from PDB files,
chains, atoms, the keys that identify computed results and the results
themselves. The work is done in the subpackages:

	store        gets and caches PDB files, locally and from remote archives.
	resolve      ranks the chains that cover a protein position.
	mapper       maps protein positions and peptides to atoms of a chain.
	geometry     computes surfaces and distances for atoms.
	cache        keeps results in memory and in a tab-separated log.
	annotation   obtains protein sequences and cross-references.
	orchestrate  puts everything together for a batch of proteins.

The v3 package holds the coordinate matrices, on top of gonum.
*/
package pdbsite
